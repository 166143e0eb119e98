package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/validation"
)

func TestBooks_ListPaginates(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	for i := 0; i < 12; i++ {
		_, err := s.catalog.CreateBook(context.Background(), s.admin, catalog.BookInput{
			Title: fmt.Sprintf("Book %02d", i), Summary: "s", ISBN: "1",
		})
		require.NoError(t, err)
	}

	w := s.do(t, http.MethodGet, "/api/books", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[catalog.Page[entities.Book]](t, w)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, int64(12), first.Total)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)

	w = s.do(t, http.MethodGet, "/api/books?page=2", nil, "")
	second := decode[catalog.Page[entities.Book]](t, w)
	assert.Len(t, second.Items, 2)
	assert.False(t, second.HasNext)

	w = s.do(t, http.MethodGet, "/api/books?page=9", nil, "")
	assert.Empty(t, decode[catalog.Page[entities.Book]](t, w).Items)
}

func TestBooks_CreateGetUpdateDelete(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	genre, err := s.catalog.CreateGenre(context.Background(), s.admin, "Fantasy")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/books", BookRequest{
		Title:    "A Wizard of Earthsea",
		Summary:  "A young mage.",
		ISBN:     "9780547773742",
		GenreIDs: []uint{genre.ID},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.Book](t, w)
	assert.NotZero(t, created.ID)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/books/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[entities.Book](t, w)
	assert.Equal(t, "A Wizard of Earthsea", got.Title)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "Fantasy", got.Genres[0].Name)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/books/%d", created.ID), BookRequest{
		Title: "The Tombs of Atuan", Summary: "Tenar.", ISBN: "9780689845369",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "The Tombs of Atuan", decode[entities.Book](t, w).Title)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/books/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/books/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooks_Validation(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	tests := []struct {
		name  string
		body  map[string]any
		field string
		rule  string
	}{
		{"missing title", map[string]any{"summary": "s", "isbn": "1"}, "title", "required"},
		{"long isbn", map[string]any{"title": "t", "summary": "s", "isbn": "12345678901234"}, "isbn", "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/books", tt.body, "")
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			resp := decode[validation.ErrorResponse](t, w)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.field, resp.Errors[0].Field)
			assert.Equal(t, tt.rule, resp.Errors[0].Rule)
		})
	}

	missingAuthor := uint(999)
	w := s.do(t, http.MethodPost, "/api/books", BookRequest{Title: "t", Summary: "s", ISBN: "1", AuthorID: &missingAuthor}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/api/books/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooks_MaintenanceRequiresCapability(t *testing.T) {
	s := newTestServer(t, config.AuthModeLocal)
	_, memberToken := s.tokenFor(t, "reader", entities.UserRoleMember)
	_, librarianToken := s.tokenFor(t, "librarian", entities.UserRoleLibrarian)
	body := BookRequest{Title: "Lathe of Heaven", Summary: "Dreams.", ISBN: "9781416556961"}

	w := s.do(t, http.MethodGet, "/api/books", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/books", nil, memberToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/books", body, memberToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient permissions")

	w = s.do(t, http.MethodPost, "/api/books", body, librarianToken)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAuthors_DeleteKeepsBooks(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	w := s.do(t, http.MethodPost, "/api/authors", AuthorRequest{FirstName: "Jon", LastName: "Adams"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	author := decode[entities.Author](t, w)

	book, err := s.catalog.CreateBook(context.Background(), s.admin, catalog.BookInput{
		Title: "Orphan", Summary: "s", ISBN: "1", AuthorID: &author.ID,
	})
	require.NoError(t, err)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/authors/%d", author.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[entities.Author](t, w).Books, 1)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/authors/%d", author.ID), nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[entities.Book](t, w).AuthorID)
}

func TestAuthors_Validation(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	w := s.do(t, http.MethodPost, "/api/authors", map[string]any{"first_name": "Jon"}, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "last_name", decode[validation.ErrorResponse](t, w).Errors[0].Field)

	w = s.do(t, http.MethodPost, "/api/authors", map[string]any{"last_name": "Adams", "date_of_birth": "yesterday"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/authors", map[string]any{
		"last_name": "Adams", "date_of_birth": "1950-01-01", "date_of_death": "1940-01-01",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTaxonomy(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	w := s.do(t, http.MethodPost, "/api/genres", NameRequest{Name: "Novel"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPost, "/api/languages", NameRequest{Name: "English"}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/genres", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	genres := decode[map[string][]entities.Genre](t, w)["genres"]
	require.Len(t, genres, 1)
	assert.Equal(t, "Novel", genres[0].Name)

	w = s.do(t, http.MethodGet, "/api/languages", nil, "")
	assert.Len(t, decode[map[string][]entities.Language](t, w)["languages"], 1)

	w = s.do(t, http.MethodPost, "/api/genres", NameRequest{Name: strings.Repeat("x", 41)}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInstances_CreateGetDelete(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	book, err := s.catalog.CreateBook(context.Background(), s.admin, catalog.BookInput{Title: "Dune", Summary: "s", ISBN: "1"})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/instances", InstanceRequest{BookID: book.ID, Imprint: "Chilton, 1965"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inst := decode[entities.BookInstance](t, w)
	assert.Equal(t, entities.LoanStatusMaintenance, inst.Status)

	w = s.do(t, http.MethodGet, "/api/instances/"+inst.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chilton, 1965", decode[entities.BookInstance](t, w).Imprint)

	w = s.do(t, http.MethodPost, "/api/instances", InstanceRequest{BookID: book.ID, Imprint: "x", Status: "z"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodDelete, "/api/instances/"+inst.ID.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/instances/"+inst.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/instances/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
