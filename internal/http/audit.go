package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	dbaudit "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/entities"
)

const (
	auditDefaultLimit = 25
	auditMaxLimit     = 100
)

type AuditController struct {
	audit AuditReader
}

func NewAuditController(audit AuditReader) *AuditController {
	return &AuditController{audit: audit}
}

// Events handles GET /api/audit. Supported filters: type, entity_type,
// entity_id, user_id, since (YYYY-MM-DD), page and limit.
func (ac *AuditController) Events(c *gin.Context) {
	page := pageParam(c)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(auditDefaultLimit)))
	if err != nil || limit < 1 || limit > auditMaxLimit {
		limit = auditDefaultLimit
	}

	filter := dbaudit.Filter{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		filter.UserID = uint(id)
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(entities.DateLayout, raw)
		if err != nil {
			respondBadRequest(c, "invalid since date")
			return
		}
		filter.Since = since
	}

	events, total, err := ac.audit.Events(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
