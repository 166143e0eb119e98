package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/validation"
)

type BooksController struct {
	catalog CatalogService
}

func NewBooksController(catalog CatalogService) *BooksController {
	return &BooksController{catalog: catalog}
}

type BookRequest struct {
	Title    string `json:"title" binding:"required,max=100"`
	AuthorID *uint  `json:"author_id"`
	Summary  string `json:"summary" binding:"required,max=1000"`
	ISBN     string `json:"isbn" binding:"required,max=13"`
	GenreIDs []uint `json:"genre_ids"`
}

func (r BookRequest) input() catalog.BookInput {
	return catalog.BookInput{
		Title:    r.Title,
		AuthorID: r.AuthorID,
		Summary:  r.Summary,
		ISBN:     r.ISBN,
		GenreIDs: r.GenreIDs,
	}
}

// List handles GET /api/books?page=N.
func (bc *BooksController) List(c *gin.Context) {
	page, err := bc.catalog.ListBooks(c.Request.Context(), pageParam(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /api/books/:id.
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Create handles POST /api/books.
func (bc *BooksController) Create(c *gin.Context) {
	var req BookRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}
	book, err := bc.catalog.CreateBook(c.Request.Context(), currentUser(c), req.input())
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

// Update handles PUT /api/books/:id. The genre set is replaced.
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BookRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}
	book, err := bc.catalog.UpdateBook(c.Request.Context(), currentUser(c), id, req.input())
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /api/books/:id. Copies of the book are kept.
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.catalog.DeleteBook(c.Request.Context(), currentUser(c), id); err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.Status(http.StatusNoContent)
}
