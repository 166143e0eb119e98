package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/validation"
)

type InstancesController struct {
	catalog CatalogService
}

func NewInstancesController(catalog CatalogService) *InstancesController {
	return &InstancesController{catalog: catalog}
}

type InstanceRequest struct {
	BookID      uint                `json:"book_id" binding:"required"`
	Imprint     string              `json:"imprint" binding:"required,max=200"`
	Status      entities.LoanStatus `json:"status"`
	LanguageIDs []uint              `json:"language_ids"`
}

func (ic *InstancesController) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	inst, err := ic.catalog.GetInstance(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "book instance")
		return
	}
	c.JSON(http.StatusOK, inst)
}

// Create handles POST /api/instances. New copies start in maintenance unless
// a status is given.
func (ic *InstancesController) Create(c *gin.Context) {
	var req InstanceRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}
	inst, err := ic.catalog.CreateInstance(c.Request.Context(), currentUser(c), catalog.InstanceInput{
		BookID:      req.BookID,
		Imprint:     req.Imprint,
		Status:      req.Status,
		LanguageIDs: req.LanguageIDs,
	})
	if err != nil {
		respondServiceError(c, err, "book instance")
		return
	}
	c.JSON(http.StatusCreated, inst)
}

func (ic *InstancesController) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := ic.catalog.DeleteInstance(c.Request.Context(), currentUser(c), id); err != nil {
		respondServiceError(c, err, "book instance")
		return
	}
	c.Status(http.StatusNoContent)
}
