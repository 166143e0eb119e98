package http

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/entities"
)

func lookupTexts(t *testing.T, s *testServer, path, token string) []string {
	t.Helper()
	w := s.do(t, http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Results []catalog.LookupResult `json:"results"`
	}](t, w)
	texts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		texts = append(texts, r.Text)
	}
	return texts
}

func TestAutocompleteAuthors_SpaceSplitsIntoFirstOrLast(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	for _, a := range []catalog.AuthorInput{
		{FirstName: "Jon", LastName: "Adams"},
		{FirstName: "Amy", LastName: "Smithson"},
		{FirstName: "Bob", LastName: "Jones"},
	} {
		_, err := s.catalog.CreateAuthor(context.Background(), s.admin, a)
		require.NoError(t, err)
	}

	texts := lookupTexts(t, s, "/api/autocomplete/authors?q="+url.QueryEscape("jo smi"), "")
	assert.ElementsMatch(t, []string{"Adams, Jon", "Smithson, Amy"}, texts)

	texts = lookupTexts(t, s, "/api/autocomplete/authors?q=jo", "")
	assert.ElementsMatch(t, []string{"Adams, Jon", "Jones, Bob"}, texts)

	texts = lookupTexts(t, s, "/api/autocomplete/authors", "")
	assert.Len(t, texts, 3)
}

func TestAutocompleteAuthors_SurroundingSpacesAreIgnored(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	for _, a := range []catalog.AuthorInput{
		{FirstName: "Jon", LastName: "Adams"},
		{FirstName: "Amy", LastName: "Smithson"},
		{FirstName: "Bob", LastName: "Jones"},
	} {
		_, err := s.catalog.CreateAuthor(context.Background(), s.admin, a)
		require.NoError(t, err)
	}

	// "jo " is a single-word query, not "jo" plus an empty last name that
	// would match every author.
	for _, q := range []string{"jo ", " jo", "  jo  "} {
		texts := lookupTexts(t, s, "/api/autocomplete/authors?q="+url.QueryEscape(q), "")
		assert.ElementsMatch(t, []string{"Adams, Jon", "Jones, Bob"}, texts, "q=%q", q)
	}

	texts := lookupTexts(t, s, "/api/autocomplete/authors?q="+url.QueryEscape("   "), "")
	assert.Len(t, texts, 3)
}

func TestAutocompleteGenresAndUsers(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	for _, name := range []string{"Novel", "novella", "History"} {
		_, err := s.catalog.CreateGenre(context.Background(), s.admin, name)
		require.NoError(t, err)
	}
	s.tokenFor(t, "alice", entities.UserRoleMember)
	s.tokenFor(t, "albert", entities.UserRoleMember)
	s.tokenFor(t, "bob", entities.UserRoleMember)

	assert.ElementsMatch(t, []string{"Novel", "novella"}, lookupTexts(t, s, "/api/autocomplete/genres?q=NOV", ""))
	assert.ElementsMatch(t, []string{"alice", "albert"}, lookupTexts(t, s, "/api/autocomplete/users?q=Al", ""))
}

func TestAutocomplete_RequiresCapability(t *testing.T) {
	s := newTestServer(t, config.AuthModeLocal)
	_, memberToken := s.tokenFor(t, "reader", entities.UserRoleMember)
	_, librarianToken := s.tokenFor(t, "librarian", entities.UserRoleLibrarian)

	for _, path := range []string{"/api/autocomplete/authors", "/api/autocomplete/genres", "/api/autocomplete/users"} {
		w := s.do(t, http.MethodGet, path, nil, memberToken)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = s.do(t, http.MethodGet, path, nil, librarianToken)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAutocomplete_Throttled(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone, withLookup(config.Lookup{RatePerSecond: 0.001, Burst: 2}))

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodGet, "/api/autocomplete/genres", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(t, http.MethodGet, "/api/autocomplete/genres", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	w = s.do(t, http.MethodGet, "/api/genres", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, "only lookups are throttled")
}
