package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/catalog"
)

type IndexResponse struct {
	catalog.Summary
	NumVisits int `json:"num_visits"`
}

type IndexController struct {
	catalog  CatalogService
	sessions *auth.SessionManager
}

func NewIndexController(catalog CatalogService, sessions *auth.SessionManager) *IndexController {
	return &IndexController{catalog: catalog, sessions: sessions}
}

// Index handles GET /api/ and GET /. Every call counts as one visit of the
// caller's session.
func (ic *IndexController) Index(c *gin.Context) {
	summary, err := ic.catalog.Summary(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "summary")
		return
	}

	resp := IndexResponse{Summary: summary}
	if ic.sessions != nil {
		resp.NumVisits = ic.sessions.IncrementVisits(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}
