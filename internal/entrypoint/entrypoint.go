package entrypoint

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/database"
	dbaudit "github.com/mrlokans/catalog/internal/database/audit"
	catalogdb "github.com/mrlokans/catalog/internal/database/catalog"
	"github.com/mrlokans/catalog/internal/database/instances"
	"github.com/mrlokans/catalog/internal/database/users"
	http_controllers "github.com/mrlokans/catalog/internal/http"
	"github.com/mrlokans/catalog/internal/loans"
	"github.com/mrlokans/catalog/internal/scheduler"
	"github.com/mrlokans/catalog/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is a fully wired catalog server.
type App struct {
	Router   *gin.Engine
	Database *database.Database
	Audit    *audit.Service

	taskClient *tasks.Client
	taskCancel context.CancelFunc
	scheduler  *scheduler.Scheduler
}

// OpenDatabase connects to the configured catalog store.
func OpenDatabase(cfg *config.Config, level logger.LogLevel) (*database.Database, error) {
	return database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.DSN,
		LogLevel: level,
	})
}

// NewApp wires every service behind the router. Background workers are
// started by Start.
func NewApp(cfg *config.Config, db *database.Database, version string) (_ *App, err error) {
	auditSvc := audit.NewService(dbaudit.NewRepository(db.DB))

	userRepo := users.NewRepository(db.DB)
	instanceRepo := instances.NewRepository(db.DB)
	catalogSvc := catalog.NewService(catalogdb.NewRepository(db.DB), instanceRepo, userRepo, auditSvc, catalog.Config{
		PageSize:    cfg.UI.PageSize,
		LookupLimit: cfg.Lookup.Limit,
	})
	loanSvc := loans.NewService(instanceRepo, userRepo, auditSvc, loans.Config{
		Window: loans.Window{
			MaxWeeks:            cfg.Loans.MaxWeeks,
			DefaultRenewalWeeks: cfg.Loans.DefaultRenewalWeeks,
		},
	})

	authService := auth.NewService(db.DB, cfg.Auth)

	// SQLite deployments keep sessions in the catalog file.
	var sqlDB *sql.DB
	if cfg.Database.Driver != database.DriverPostgres {
		if sqlDB, err = db.DB.DB(); err != nil {
			return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	app := &App{Database: db, Audit: auditSvc}
	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Catalog:        catalogSvc,
		Loans:          loanSvc,
		Audit:          auditSvc,
		AuthConfig:     cfg.Auth,
		AuthService:    authService,
		AuthMiddleware: auth.NewMiddleware(authService, sessionManager, cfg.Auth),
		SessionManager: sessionManager,
		Lookup:         cfg.Lookup,
		Version:        version,
		ReadOnly:       cfg.Global.ReadOnly,
	}
	if cfg.Global.ReadOnly {
		log.Printf("Read-only mode: catalog and loan writes are disabled")
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		secret, err := csrfSecret(cfg.Auth.SessionSecret)
		if err != nil {
			return nil, err
		}
		routerCfg.CSRFSecret = secret
		routerCfg.SecureCookies = cfg.Auth.SecureCookies
		routerCfg.LoginLimiter = auth.NewLoginLimiter(cfg.Auth)
		routerCfg.AuthEvents = auditSvc

		hasUsers, err := authService.HasUsers(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to check for users: %w", err)
		}
		if !hasUsers {
			log.Printf("No users found. POST /api/auth/setup to create an administrator account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	if cfg.Tasks.Enabled {
		taskClient, err := tasks.NewClient(tasksDBPath(cfg), tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		taskClient.Register(
			tasks.NewOverdueScanQueue(loanSvc, auditSvc, nil),
			tasks.NewCleanupAuditEventsQueue(auditSvc),
		)

		sched, err := scheduler.New(taskClient, cfg.Scheduler, cfg.Audit)
		if err != nil {
			taskClient.Close()
			return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
		}

		app.taskClient = taskClient
		app.scheduler = sched
		routerCfg.TaskQueue = taskClient
		routerCfg.Jobs = sched
	}

	app.Router = http_controllers.NewRouter(routerCfg)
	return app, nil
}

// Start launches the task workers and the scheduler.
func (a *App) Start() {
	if a.taskClient == nil {
		return
	}
	var ctx context.Context
	ctx, a.taskCancel = context.WithCancel(context.Background())
	go a.taskClient.Start(ctx)
	a.scheduler.Start(ctx)
}

// Shutdown stops background work and waits for pending audit writes.
func (a *App) Shutdown(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.taskClient != nil {
		a.taskClient.Stop(ctx)
		if a.taskCancel != nil {
			a.taskCancel()
		}
		if err := a.taskClient.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	a.Audit.Wait()
}

// tasksDBPath keeps the queue in its own SQLite file. PostgreSQL
// deployments put it next to the configured SQLite path.
func tasksDBPath(cfg *config.Config) string {
	path := cfg.Database.Path
	if path == "" {
		path = config.DefaultDatabasePath
	}
	return tasks.TasksDBPath(path)
}

// csrfSecret decodes a hex session secret, falls back to raw bytes, and
// generates one when none is configured.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(generated)
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Stop background work after in-flight requests have finished.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting catalog v%s", version)

	db, err := OpenDatabase(cfg, logger.Info)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	app, err := NewApp(cfg, db, version)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	app.Start()

	Serve(app.Router, cfg, app.Shutdown)
}
