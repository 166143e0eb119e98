package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	dbaudit "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/database"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/loans"
)

// CatalogService is the catalog API the handlers use.
type CatalogService interface {
	ListBooks(ctx context.Context, page int) (catalog.Page[entities.Book], error)
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	ListAuthors(ctx context.Context, page int) (catalog.Page[entities.Author], error)
	GetAuthor(ctx context.Context, id uint) (*entities.Author, error)
	ListGenres(ctx context.Context) ([]entities.Genre, error)
	ListLanguages(ctx context.Context) ([]entities.Language, error)
	Summary(ctx context.Context) (catalog.Summary, error)

	CreateAuthor(ctx context.Context, actor *entities.User, in catalog.AuthorInput) (*entities.Author, error)
	UpdateAuthor(ctx context.Context, actor *entities.User, id uint, in catalog.AuthorInput) (*entities.Author, error)
	DeleteAuthor(ctx context.Context, actor *entities.User, id uint) error
	CreateBook(ctx context.Context, actor *entities.User, in catalog.BookInput) (*entities.Book, error)
	UpdateBook(ctx context.Context, actor *entities.User, id uint, in catalog.BookInput) (*entities.Book, error)
	DeleteBook(ctx context.Context, actor *entities.User, id uint) error
	CreateGenre(ctx context.Context, actor *entities.User, name string) (*entities.Genre, error)
	CreateLanguage(ctx context.Context, actor *entities.User, name string) (*entities.Language, error)
	GetInstance(ctx context.Context, id uuid.UUID) (*entities.BookInstance, error)
	CreateInstance(ctx context.Context, actor *entities.User, in catalog.InstanceInput) (*entities.BookInstance, error)
	DeleteInstance(ctx context.Context, actor *entities.User, id uuid.UUID) error

	LookupAuthors(ctx context.Context, actor *entities.User, q string) ([]catalog.LookupResult, error)
	LookupGenres(ctx context.Context, actor *entities.User, q string) ([]catalog.LookupResult, error)
	LookupUsers(ctx context.Context, actor *entities.User, q string) ([]catalog.LookupResult, error)
}

// LoanService is the loan lifecycle API the handlers use.
type LoanService interface {
	Today() entities.Date
	DefaultRenewalDate() entities.Date
	RenewLoan(ctx context.Context, actor *entities.User, instanceID uuid.UUID, dueBack entities.Date) (*entities.BookInstance, error)
	ChangeStatus(ctx context.Context, actor *entities.User, instanceID uuid.UUID, change loans.StatusChange) (*entities.BookInstance, error)
	OverdueLoans(ctx context.Context, asOf entities.Date) ([]entities.BookInstance, error)
	LoansForBorrower(ctx context.Context, userID uint) (loans.BorrowerLoans, error)
	AllLoans(ctx context.Context, actor *entities.User) ([]entities.BookInstance, error)
}

// AuditReader lists recorded audit events.
type AuditReader interface {
	Events(ctx context.Context, filter dbaudit.Filter) ([]entities.AuditEvent, int64, error)
}

// TaskQueue reports the status of background tasks.
type TaskQueue interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// JobRunner triggers scheduled jobs on demand.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	Jobs() []string
}

// RouterConfig holds the dependencies of NewRouter. Optional parts are nil
// when the matching feature is disabled.
type RouterConfig struct {
	Database *database.Database
	Catalog  CatalogService
	Loans    LoanService
	Audit    AuditReader

	// Authentication
	AuthConfig     config.Auth
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	LoginLimiter   *auth.LoginLimiter
	AuthEvents     auth.AuthEventLogger
	CSRFSecret     []byte
	SecureCookies  bool

	// Autocomplete throttling
	Lookup config.Lookup

	// Background work (optional)
	TaskQueue TaskQueue
	Jobs      JobRunner

	// Application info
	Version  string
	ReadOnly bool
}
