package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/config"
)

const throttleIdleTTL = 3 * time.Minute

type throttleClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a per-client token bucket. Clients are keyed by user when
// authenticated and by IP otherwise.
type Throttle struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*throttleClient
	lastPrune time.Time
}

// NewThrottle returns nil when the rate is not positive, which disables
// throttling.
func NewThrottle(cfg config.Lookup) *Throttle {
	if cfg.RatePerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		limit:   rate.Limit(cfg.RatePerSecond),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*throttleClient),
	}
}

// Allow consumes one token for key.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastPrune) > time.Minute {
		for k, c := range t.clients {
			if now.Sub(c.lastSeen) > throttleIdleTTL {
				delete(t.clients, k)
			}
		}
		t.lastPrune = now
	}

	c, ok := t.clients[key]
	if !ok {
		c = &throttleClient{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the rate with 429. A nil Throttle passes
// everything through.
func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t == nil {
			c.Next()
			return
		}
		if !t.Allow(throttleKey(c)) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

func throttleKey(c *gin.Context) string {
	if user := auth.CurrentUser(c); user != nil && user.ID != 0 {
		return "user:" + strconv.FormatUint(uint64(user.ID), 10)
	}
	return "ip:" + c.ClientIP()
}
