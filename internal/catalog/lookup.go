package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/catalog/internal/access"
	"github.com/mrlokans/catalog/internal/entities"
)

// LookupResult is a single autocomplete suggestion.
type LookupResult struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// LookupAuthors suggests authors for a staff form.
//
// A query without a space matches authors whose first or last name starts
// with it. A query with a space is split at the first space and matches
// authors whose first name starts with the first part OR whose last name
// starts with the second. An empty query lists authors in display order.
func (s *Service) LookupAuthors(ctx context.Context, actor *entities.User, q string) ([]LookupResult, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}

	var authors []entities.Author
	var err error
	switch {
	case q == "":
		authors, err = s.store.AllAuthors(ctx, s.limit)
	case !strings.Contains(q, " "):
		authors, err = s.store.SearchAuthors(ctx, q, q, s.limit)
	default:
		names := strings.SplitN(q, " ", 3)
		authors, err = s.store.SearchAuthors(ctx, names[0], names[1], s.limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up authors: %w", err)
	}

	results := make([]LookupResult, 0, len(authors))
	for _, a := range authors {
		results = append(results, LookupResult{ID: idString(a.ID), Text: a.String()})
	}
	return results, nil
}

// LookupGenres suggests genres whose name starts with q.
func (s *Service) LookupGenres(ctx context.Context, actor *entities.User, q string) ([]LookupResult, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}

	genres, err := s.store.SearchGenres(ctx, q, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to look up genres: %w", err)
	}

	results := make([]LookupResult, 0, len(genres))
	for _, g := range genres {
		results = append(results, LookupResult{ID: idString(g.ID), Text: g.Name})
	}
	return results, nil
}

// LookupUsers suggests borrowers whose username starts with q.
func (s *Service) LookupUsers(ctx context.Context, actor *entities.User, q string) ([]LookupResult, error) {
	if err := access.Authorize(actor, access.MarkReturned).Err(); err != nil {
		return nil, err
	}

	users, err := s.users.SearchByUsernamePrefix(ctx, q, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}

	results := make([]LookupResult, 0, len(users))
	for _, u := range users {
		results = append(results, LookupResult{ID: idString(u.ID), Text: u.Username})
	}
	return results, nil
}
