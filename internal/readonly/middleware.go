// Package readonly blocks catalog and loan writes while the server runs in
// read-only mode, for example during a migration or against a replica.
package readonly

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Message is returned for every blocked write.
const Message = "the catalog is in read-only mode"

// Paths still accepting writes so users can sign in and out.
var allowedPrefixes = []string{
	"/api/auth/login",
	"/api/auth/logout",
}

type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

func (m *Middleware) IsEnabled() bool {
	return m != nil && m.enabled
}

// Handler lets GET, HEAD and OPTIONS through and rejects other methods with
// 503 unless the path is allowlisted.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.IsEnabled() {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.Header("Retry-After", "60")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": Message,
			"code":  "read_only",
		})
	}
}

func isAllowedPath(path string) bool {
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
