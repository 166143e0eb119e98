package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/entities"
)

const (
	SessionKeyUserID  = "user_id"
	SessionKeyRole    = "role"
	SessionKeyLoginAt = "login_at"
	SessionKeyVisits  = "num_visits"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs with the catalog's session keys.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager stores sessions in the catalog's SQLite file when sqlDB
// is given and in process memory otherwise (PostgreSQL deployments).
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()
	if sqlDB != nil {
		if _, err := sqlDB.Exec(sessionsSchema); err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession binds the session to user after a successful login. The
// token is renewed first so a pre-login session id cannot be reused.
func (sm *SessionManager) CreateSession(ctx context.Context, user *entities.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyRole, user.Role)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

func (sm *SessionManager) DestroySession(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// UserID is 0 for anonymous sessions.
func (sm *SessionManager) UserID(ctx context.Context) uint {
	return uint(sm.GetInt(ctx, SessionKeyUserID))
}

func (sm *SessionManager) Role(ctx context.Context) entities.UserRole {
	role, _ := sm.Get(ctx, SessionKeyRole).(entities.UserRole)
	return role
}

func (sm *SessionManager) LoginAt(ctx context.Context) time.Time {
	at, _ := sm.Get(ctx, SessionKeyLoginAt).(time.Time)
	return at
}

// IncrementVisits bumps the per-session visit counter and returns the count
// of earlier visits, so a new session reports zero.
func (sm *SessionManager) IncrementVisits(ctx context.Context) int {
	visits := sm.GetInt(ctx, SessionKeyVisits)
	sm.Put(ctx, SessionKeyVisits, visits+1)
	return visits
}

func (sm *SessionManager) Visits(ctx context.Context) int {
	return sm.GetInt(ctx, SessionKeyVisits)
}
