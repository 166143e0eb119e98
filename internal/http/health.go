package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

type HealthResponse struct {
	Status  string            `json:"status"`
	Mode    string            `json:"mode"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Pinger is satisfied by *database.Database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerInfo describes the running server for the health report.
type ServerInfo struct {
	Version      string
	ReadOnly     bool
	TasksEnabled bool
}

type HealthController struct {
	db   Pinger
	info ServerInfo
}

func NewHealthController(db Pinger, info ServerInfo) *HealthController {
	return &HealthController{db: db, info: info}
}

// Status handles GET /health. Only the database check affects the status
// code.
func (h *HealthController) Status(c *gin.Context) {
	resp := HealthResponse{
		Status:  "healthy",
		Mode:    "read-write",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.info.Version,
		Checks:  map[string]string{"database": "not configured", "tasks": "disabled"},
	}
	if h.info.ReadOnly {
		resp.Mode = "read-only"
	}
	if h.info.TasksEnabled {
		resp.Checks["tasks"] = "enabled"
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Checks["database"] = "error: " + err.Error()
			resp.Status = "unhealthy"
		} else {
			resp.Checks["database"] = "ok"
		}
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}
