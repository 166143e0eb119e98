package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/config"
)

func TestIndex_SummaryAndVisitCounter(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	ctx := context.Background()

	novel, err := s.catalog.CreateGenre(ctx, s.admin, "Novel")
	require.NoError(t, err)
	_, err = s.catalog.CreateBook(ctx, s.admin, catalog.BookInput{Title: "Emma", Summary: "s", ISBN: "1", GenreIDs: []uint{novel.ID}})
	require.NoError(t, err)
	s.seedCopy(t, "Dune")

	var cookies []*http.Cookie
	for want := 0; want <= 2; want++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[IndexResponse](t, w)
		assert.Equal(t, want, resp.NumVisits)
		assert.Equal(t, int64(2), resp.Books)
		assert.Equal(t, int64(1), resp.Instances)
		assert.Equal(t, int64(1), resp.AvailableInstances)
		assert.Equal(t, int64(1), resp.Novels)

		if len(cookies) == 0 {
			cookies = w.Result().Cookies()
			require.NotEmpty(t, cookies, "session cookie is issued on first visit")
		}
	}

	w := s.do(t, http.MethodGet, "/api", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[IndexResponse](t, w).NumVisits, "a new session has no earlier visits")
}
