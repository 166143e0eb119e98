package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/entities"
)

// AutocompleteController serves the staff form lookups. Responses use the
// {"results": [{"id", "text"}]} shape select widgets expect.
type AutocompleteController struct {
	catalog CatalogService
}

func NewAutocompleteController(catalog CatalogService) *AutocompleteController {
	return &AutocompleteController{catalog: catalog}
}

type lookupFunc func(ctx context.Context, actor *entities.User, q string) ([]catalog.LookupResult, error)

func (ac *AutocompleteController) Authors(c *gin.Context) {
	ac.lookup(c, "authors", ac.catalog.LookupAuthors)
}

func (ac *AutocompleteController) Genres(c *gin.Context) {
	ac.lookup(c, "genres", ac.catalog.LookupGenres)
}

func (ac *AutocompleteController) Users(c *gin.Context) {
	ac.lookup(c, "users", ac.catalog.LookupUsers)
}

func (ac *AutocompleteController) lookup(c *gin.Context, resource string, fn lookupFunc) {
	q := strings.TrimSpace(c.Query("q"))
	results, err := fn(c.Request.Context(), currentUser(c), q)
	if err != nil {
		respondServiceError(c, err, resource)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
