package readonly

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRouter(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewMiddleware(enabled).Handler())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/api/books", ok)
	router.POST("/api/books", ok)
	router.DELETE("/api/books/:id", ok)
	router.POST("/api/instances/:id/renew", ok)
	router.POST("/api/auth/login", ok)
	router.POST("/api/auth/logout", ok)
	router.POST("/api/auth/setup", ok)
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestMiddleware_BlocksWrites(t *testing.T) {
	router := setupRouter(true)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/books", http.StatusOK},
		{http.MethodPost, "/api/books", http.StatusServiceUnavailable},
		{http.MethodDelete, "/api/books/1", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/instances/abc/renew", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/auth/login", http.StatusOK},
		{http.MethodPost, "/api/auth/logout", http.StatusOK},
		{http.MethodPost, "/api/auth/setup", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(router, tt.method, tt.path)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMiddleware_BlockedResponse(t *testing.T) {
	w := serve(setupRouter(true), http.MethodPost, "/api/books")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"`+Message+`","code":"read_only"}`, w.Body.String())
}

func TestMiddleware_Disabled(t *testing.T) {
	router := setupRouter(false)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/books").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodDelete, "/api/books/1").Code)
}

func TestMiddleware_NilIsDisabled(t *testing.T) {
	var m *Middleware
	assert.False(t, m.IsEnabled())
	assert.True(t, NewMiddleware(true).IsEnabled())
}
