package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/validation"
)

// TaxonomyController serves genres and languages.
type TaxonomyController struct {
	catalog CatalogService
}

func NewTaxonomyController(catalog CatalogService) *TaxonomyController {
	return &TaxonomyController{catalog: catalog}
}

type NameRequest struct {
	Name string `json:"name" binding:"required,max=40"`
}

func (tc *TaxonomyController) ListGenres(c *gin.Context) {
	genres, err := tc.catalog.ListGenres(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list genres")
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

func (tc *TaxonomyController) CreateGenre(c *gin.Context) {
	var req NameRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}
	genre, err := tc.catalog.CreateGenre(c.Request.Context(), currentUser(c), req.Name)
	if err != nil {
		respondServiceError(c, err, "genre")
		return
	}
	c.JSON(http.StatusCreated, genre)
}

func (tc *TaxonomyController) ListLanguages(c *gin.Context) {
	languages, err := tc.catalog.ListLanguages(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list languages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"languages": languages})
}

func (tc *TaxonomyController) CreateLanguage(c *gin.Context) {
	var req NameRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}
	language, err := tc.catalog.CreateLanguage(c.Request.Context(), currentUser(c), req.Name)
	if err != nil {
		respondServiceError(c, err, "language")
		return
	}
	c.JSON(http.StatusCreated, language)
}
