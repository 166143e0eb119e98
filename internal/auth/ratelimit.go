package auth

import (
	"sync"
	"time"

	"github.com/mrlokans/catalog/internal/config"
)

// LoginLimiter counts failed logins per client+username key within a
// window and blocks the key for a lockout period once the limit is hit.
// Expired entries are pruned on access, so no background goroutine is needed.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string]*loginAttempts
	limit    int
	window   time.Duration
	lockout  time.Duration
	now      func() time.Time
}

type loginAttempts struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

func NewLoginLimiter(cfg config.Auth) *LoginLimiter {
	l := &LoginLimiter{
		attempts: make(map[string]*loginAttempts),
		limit:    cfg.MaxLoginAttempts,
		window:   cfg.RateLimitWindow,
		lockout:  cfg.LockoutDuration,
		now:      time.Now,
	}
	if l.limit <= 0 {
		l.limit = defaultMaxLoginAttempts
	}
	if l.window <= 0 {
		l.window = 15 * time.Minute
	}
	if l.lockout <= 0 {
		l.lockout = defaultLockoutDuration
	}
	return l
}

func limiterKey(clientIP, username string) string {
	return clientIP + "|" + username
}

// Allow reports whether another attempt may be made and, if not, how long
// until the lockout ends.
func (l *LoginLimiter) Allow(clientIP, username string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	rec, ok := l.attempts[limiterKey(clientIP, username)]
	if !ok {
		return true, 0
	}
	if now.Before(rec.lockedUntil) {
		return false, rec.lockedUntil.Sub(now)
	}
	return true, 0
}

func (l *LoginLimiter) RecordFailure(clientIP, username string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := limiterKey(clientIP, username)
	rec, ok := l.attempts[key]
	if !ok || now.Sub(rec.windowStart) > l.window {
		rec = &loginAttempts{windowStart: now}
		l.attempts[key] = rec
	}
	rec.failures++
	if rec.failures >= l.limit {
		rec.lockedUntil = now.Add(l.lockout)
	}
}

func (l *LoginLimiter) RecordSuccess(clientIP, username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, limiterKey(clientIP, username))
}

func (l *LoginLimiter) prune(now time.Time) {
	for key, rec := range l.attempts {
		if now.Sub(rec.windowStart) > l.window && !now.Before(rec.lockedUntil) {
			delete(l.attempts, key)
		}
	}
}
