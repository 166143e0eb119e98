package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/access"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/readonly"
)

// NewRouter creates the JSON API with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}
	if cfg.ReadOnly {
		router.Use(readonly.NewMiddleware(true).Handler())
	}

	// CSRF must run before the session middleware so the session context
	// survives CSRF's request replacement.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}

	m := cfg.AuthMiddleware
	if m == nil {
		m = auth.NewMiddleware(cfg.AuthService, cfg.SessionManager, config.Auth{Mode: config.AuthModeNone})
	}
	router.Use(m.Handler())

	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.LoginLimiter, cfg.AuthEvents)
		authController.RegisterRoutes(router, m)
	}

	var db Pinger
	if cfg.Database != nil {
		db = cfg.Database
	}
	router.GET("/health", NewHealthController(db, ServerInfo{
		Version:      cfg.Version,
		ReadOnly:     cfg.ReadOnly,
		TasksEnabled: cfg.TaskQueue != nil,
	}).Status)

	maintain := m.RequireCapability(access.MaintainCatalog)
	markReturned := m.RequireCapability(access.MarkReturned)
	admin := m.RequireRole(entities.UserRoleAdmin)

	index := NewIndexController(cfg.Catalog, cfg.SessionManager)
	router.GET("/", index.Index)

	api := router.Group("/api")
	api.GET("", index.Index)

	books := NewBooksController(cfg.Catalog)
	api.GET("/books", books.List)
	api.GET("/books/:id", books.Get)
	api.POST("/books", maintain, books.Create)
	api.PUT("/books/:id", maintain, books.Update)
	api.DELETE("/books/:id", maintain, books.Delete)

	authors := NewAuthorsController(cfg.Catalog)
	api.GET("/authors", authors.List)
	api.GET("/authors/:id", authors.Get)
	api.POST("/authors", maintain, authors.Create)
	api.PUT("/authors/:id", maintain, authors.Update)
	api.DELETE("/authors/:id", maintain, authors.Delete)

	taxonomy := NewTaxonomyController(cfg.Catalog)
	api.GET("/genres", taxonomy.ListGenres)
	api.POST("/genres", maintain, taxonomy.CreateGenre)
	api.GET("/languages", taxonomy.ListLanguages)
	api.POST("/languages", maintain, taxonomy.CreateLanguage)

	instances := NewInstancesController(cfg.Catalog)
	loans := NewLoansController(cfg.Loans)
	api.POST("/instances", maintain, instances.Create)
	api.GET("/instances/:id", instances.Get)
	api.DELETE("/instances/:id", maintain, instances.Delete)
	api.GET("/instances/:id/renew", markReturned, loans.RenewForm)
	api.POST("/instances/:id/renew", markReturned, loans.Renew)
	api.POST("/instances/:id/status", markReturned, loans.ChangeStatus)

	api.GET("/loans/mine", loans.Mine)
	api.GET("/loans", markReturned, loans.All)
	api.GET("/loans/overdue", markReturned, loans.Overdue)

	throttle := NewThrottle(cfg.Lookup)
	autocomplete := NewAutocompleteController(cfg.Catalog)
	lookups := api.Group("/autocomplete", throttle.Middleware())
	lookups.GET("/authors", maintain, autocomplete.Authors)
	lookups.GET("/genres", maintain, autocomplete.Genres)
	lookups.GET("/users", markReturned, autocomplete.Users)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		api.GET("/audit", admin, auditController.Events)
	}

	if cfg.TaskQueue != nil && cfg.Jobs != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.Jobs)
		api.GET("/tasks/types", admin, tasksController.ListJobs)
		api.GET("/tasks/:id", admin, tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", admin, tasksController.RunTask)
	}

	return router
}
