package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
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
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/loans"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2026, time.October, 16, 14, 30, 0, 0, time.UTC)

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	auth    *auth.Service
	catalog *catalog.Service
	loans   *loans.Service
	audit   *audit.Service
	today   entities.Date
	admin   *entities.User
}

type serverOption func(*RouterConfig)

func withLookup(cfg config.Lookup) serverOption {
	return func(rc *RouterConfig) { rc.Lookup = cfg }
}

func withTasks(queue TaskQueue, jobs JobRunner) serverOption {
	return func(rc *RouterConfig) {
		rc.TaskQueue = queue
		rc.Jobs = jobs
	}
}

func newTestServer(t *testing.T, mode config.AuthMode, opts ...serverOption) *testServer {
	t.Helper()

	db, err := database.Open(database.Options{
		Driver:   database.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "catalog.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditSvc := audit.NewService(dbaudit.NewRepository(db.DB))
	t.Cleanup(auditSvc.Wait)

	userRepo := users.NewRepository(db.DB)
	instanceRepo := instances.NewRepository(db.DB)
	catalogSvc := catalog.NewService(catalogdb.NewRepository(db.DB), instanceRepo, userRepo, auditSvc, catalog.Config{})
	loanSvc := loans.NewService(instanceRepo, userRepo, auditSvc, loans.Config{Now: func() time.Time { return fixedNow }})

	authCfg := config.Auth{
		Mode:             mode,
		SessionLifetime:  time.Hour,
		BcryptCost:       bcrypt.MinCost,
		MaxLoginAttempts: 5,
		RateLimitWindow:  15 * time.Minute,
		LockoutDuration:  30 * time.Minute,
	}
	authSvc := auth.NewService(db.DB, authCfg)
	sessions, err := auth.NewSessionManager(nil, authCfg)
	require.NoError(t, err)

	rc := RouterConfig{
		Database:       db,
		Catalog:        catalogSvc,
		Loans:          loanSvc,
		Audit:          auditSvc,
		AuthConfig:     authCfg,
		AuthService:    authSvc,
		AuthMiddleware: auth.NewMiddleware(authSvc, sessions, authCfg),
		SessionManager: sessions,
		LoginLimiter:   auth.NewLoginLimiter(authCfg),
		AuthEvents:     auditSvc,
		Version:        "test",
	}
	for _, opt := range opts {
		opt(&rc)
	}

	admin := auth.LocalUser
	return &testServer{
		router:  NewRouter(rc),
		db:      db,
		auth:    authSvc,
		catalog: catalogSvc,
		loans:   loanSvc,
		audit:   auditSvc,
		today:   entities.DateOf(fixedNow),
		admin:   &admin,
	}
}

// tokenFor creates a user with role and returns a bearer token for it.
func (s *testServer) tokenFor(t *testing.T, username string, role entities.UserRole) (*entities.User, string) {
	t.Helper()
	ctx := context.Background()
	user, err := s.auth.CreateUser(ctx, auth.NewUser{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse battery",
		Role:     role,
	})
	require.NoError(t, err)
	token, err := s.auth.GenerateToken(ctx, user.ID)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// seedCopy creates an author, a book and one available copy of it.
func (s *testServer) seedCopy(t *testing.T, title string) *entities.BookInstance {
	t.Helper()
	ctx := context.Background()

	author, err := s.catalog.CreateAuthor(ctx, s.admin, catalog.AuthorInput{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)
	book, err := s.catalog.CreateBook(ctx, s.admin, catalog.BookInput{
		Title:    title,
		AuthorID: &author.ID,
		Summary:  "A summary.",
		ISBN:     "9780441478125",
	})
	require.NoError(t, err)
	inst, err := s.catalog.CreateInstance(ctx, s.admin, catalog.InstanceInput{
		BookID:  book.ID,
		Imprint: "Ace, 1969",
		Status:  entities.LoanStatusAvailable,
	})
	require.NoError(t, err)
	return inst
}

func (s *testServer) lend(t *testing.T, inst *entities.BookInstance, borrower uint, due entities.Date) {
	t.Helper()
	_, err := s.loans.ChangeStatus(context.Background(), s.admin, inst.ID, loans.StatusChange{
		Status:     entities.LoanStatusOnLoan,
		BorrowerID: &borrower,
		DueBack:    &due,
	})
	require.NoError(t, err)
}

// setDueBack writes a due date directly, bypassing the loan window.
func (s *testServer) setDueBack(t *testing.T, inst *entities.BookInstance, due entities.Date) {
	t.Helper()
	require.NoError(t, s.db.DB.Model(&entities.BookInstance{}).Where("id = ?", inst.ID).Update("due_back", due).Error)
}
