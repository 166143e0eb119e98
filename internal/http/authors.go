package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/validation"
)

type AuthorsController struct {
	catalog CatalogService
}

func NewAuthorsController(catalog CatalogService) *AuthorsController {
	return &AuthorsController{catalog: catalog}
}

type AuthorRequest struct {
	FirstName   string         `json:"first_name" binding:"max=100"`
	LastName    string         `json:"last_name" binding:"required,max=100"`
	DateOfBirth *entities.Date `json:"date_of_birth"`
	DateOfDeath *entities.Date `json:"date_of_death"`
}

func (r AuthorRequest) input() catalog.AuthorInput {
	return catalog.AuthorInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		DateOfBirth: r.DateOfBirth,
		DateOfDeath: r.DateOfDeath,
	}
}

// List handles GET /api/authors?page=N.
func (ac *AuthorsController) List(c *gin.Context) {
	page, err := ac.catalog.ListAuthors(c.Request.Context(), pageParam(c))
	if err != nil {
		respondInternalError(c, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /api/authors/:id. The author's books are included.
func (ac *AuthorsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	author, err := ac.catalog.GetAuthor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "author")
		return
	}
	c.JSON(http.StatusOK, author)
}

func (ac *AuthorsController) Create(c *gin.Context) {
	var req AuthorRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}
	author, err := ac.catalog.CreateAuthor(c.Request.Context(), currentUser(c), req.input())
	if err != nil {
		respondServiceError(c, err, "author")
		return
	}
	c.JSON(http.StatusCreated, author)
}

func (ac *AuthorsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AuthorRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}
	author, err := ac.catalog.UpdateAuthor(c.Request.Context(), currentUser(c), id, req.input())
	if err != nil {
		respondServiceError(c, err, "author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// Delete handles DELETE /api/authors/:id. The author's books lose their
// author reference and are kept.
func (ac *AuthorsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.catalog.DeleteAuthor(c.Request.Context(), currentUser(c), id); err != nil {
		respondServiceError(c, err, "author")
		return
	}
	c.Status(http.StatusNoContent)
}
