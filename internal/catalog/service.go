// Package catalog implements browsing and maintenance of the library
// catalog: authors, books, genres, languages and copies, plus the
// autocomplete lookups used by staff forms.
package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/mrlokans/catalog/internal/access"
	catalogdb "github.com/mrlokans/catalog/internal/database/catalog"
	"github.com/mrlokans/catalog/internal/entities"
)

// Store is the catalog persistence the service needs.
type Store interface {
	ListAuthors(ctx context.Context, limit, offset int) ([]entities.Author, int64, error)
	GetAuthor(ctx context.Context, id uint) (*entities.Author, error)
	CreateAuthor(ctx context.Context, author *entities.Author) error
	UpdateAuthor(ctx context.Context, author *entities.Author) error
	DeleteAuthor(ctx context.Context, id uint) error
	SearchAuthors(ctx context.Context, firstPrefix, lastPrefix string, limit int) ([]entities.Author, error)
	AllAuthors(ctx context.Context, limit int) ([]entities.Author, error)

	ListBooks(ctx context.Context, limit, offset int) ([]entities.Book, int64, error)
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	CreateBook(ctx context.Context, book *entities.Book) error
	UpdateBook(ctx context.Context, book *entities.Book) error
	DeleteBook(ctx context.Context, id uint) error
	NovelCount(ctx context.Context) (int64, error)

	CreateGenre(ctx context.Context, genre *entities.Genre) error
	ListGenres(ctx context.Context) ([]entities.Genre, error)
	GenresByIDs(ctx context.Context, ids []uint) ([]entities.Genre, error)
	SearchGenres(ctx context.Context, prefix string, limit int) ([]entities.Genre, error)
	CreateLanguage(ctx context.Context, language *entities.Language) error
	ListLanguages(ctx context.Context) ([]entities.Language, error)
	LanguagesByIDs(ctx context.Context, ids []uint) ([]entities.Language, error)

	Counts(ctx context.Context) (catalogdb.Counts, error)
}

// InstanceStore manages individual copies.
type InstanceStore interface {
	Get(ctx context.Context, id uuid.UUID) (*entities.BookInstance, error)
	Create(ctx context.Context, inst *entities.BookInstance) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserSearcher backs the borrower lookup.
type UserSearcher interface {
	SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]entities.User, error)
}

// AuditLogger records catalog mutations.
type AuditLogger interface {
	LogCatalogChange(userID uint, action, entityType, entityID, entityName string)
	LogDelete(userID uint, entityType, entityID, entityName string)
}

type Config struct {
	PageSize    int
	LookupLimit int
}

type Service struct {
	store     Store
	instances InstanceStore
	users     UserSearcher
	audit     AuditLogger
	pageSize  int
	limit     int
}

// NewService creates a catalog service. audit may be nil.
func NewService(store Store, instances InstanceStore, users UserSearcher, audit AuditLogger, cfg Config) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.LookupLimit <= 0 {
		cfg.LookupLimit = 20
	}
	return &Service{
		store:     store,
		instances: instances,
		users:     users,
		audit:     audit,
		pageSize:  cfg.PageSize,
		limit:     cfg.LookupLimit,
	}
}

// AuthorInput carries the editable fields of an author.
type AuthorInput struct {
	FirstName   string
	LastName    string
	DateOfBirth *entities.Date
	DateOfDeath *entities.Date
}

// BookInput carries the editable fields of a book.
type BookInput struct {
	Title    string
	AuthorID *uint
	Summary  string
	ISBN     string
	GenreIDs []uint
}

// InstanceInput carries the fields of a new copy.
type InstanceInput struct {
	BookID      uint
	Imprint     string
	Status      entities.LoanStatus
	LanguageIDs []uint
}

// Summary is the catalog overview shown on the index page.
type Summary struct {
	catalogdb.Counts
	Novels int64 `json:"novels"`
}

// --- Read side ---

func (s *Service) ListBooks(ctx context.Context, page int) (Page[entities.Book], error) {
	page, limit, offset := bounds(page, s.pageSize)
	books, total, err := s.store.ListBooks(ctx, limit, offset)
	if err != nil {
		return Page[entities.Book]{}, fmt.Errorf("failed to list books: %w", err)
	}
	return newPage(books, page, s.pageSize, total), nil
}

func (s *Service) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, translate(err, "book %d", id)
	}
	return book, nil
}

func (s *Service) ListAuthors(ctx context.Context, page int) (Page[entities.Author], error) {
	page, limit, offset := bounds(page, s.pageSize)
	authors, total, err := s.store.ListAuthors(ctx, limit, offset)
	if err != nil {
		return Page[entities.Author]{}, fmt.Errorf("failed to list authors: %w", err)
	}
	return newPage(authors, page, s.pageSize, total), nil
}

func (s *Service) GetAuthor(ctx context.Context, id uint) (*entities.Author, error) {
	author, err := s.store.GetAuthor(ctx, id)
	if err != nil {
		return nil, translate(err, "author %d", id)
	}
	return author, nil
}

func (s *Service) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	return s.store.ListGenres(ctx)
}

func (s *Service) ListLanguages(ctx context.Context) ([]entities.Language, error) {
	return s.store.ListLanguages(ctx)
}

// NovelCount counts distinct books with a genre named "novel" in any case.
func (s *Service) NovelCount(ctx context.Context) (int64, error) {
	return s.store.NovelCount(ctx)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count catalog: %w", err)
	}
	novels, err := s.store.NovelCount(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count novels: %w", err)
	}
	return Summary{Counts: counts, Novels: novels}, nil
}

// --- Authors ---

func (s *Service) CreateAuthor(ctx context.Context, actor *entities.User, in AuthorInput) (*entities.Author, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}
	if err := validateLifespan(in); err != nil {
		return nil, err
	}

	author := &entities.Author{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
		DateOfDeath: in.DateOfDeath,
	}
	if err := s.store.CreateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	s.logChange(actor, "author_create", "author", idString(author.ID), author.String())
	return author, nil
}

func (s *Service) UpdateAuthor(ctx context.Context, actor *entities.User, id uint, in AuthorInput) (*entities.Author, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}
	if err := validateLifespan(in); err != nil {
		return nil, err
	}

	author, err := s.store.GetAuthor(ctx, id)
	if err != nil {
		return nil, translate(err, "author %d", id)
	}

	author.FirstName = in.FirstName
	author.LastName = in.LastName
	author.DateOfBirth = in.DateOfBirth
	author.DateOfDeath = in.DateOfDeath
	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, translate(err, "failed to update author %d", id)
	}

	s.logChange(actor, "author_update", "author", idString(author.ID), author.String())
	return author, nil
}

// DeleteAuthor removes an author; their books remain without an author.
func (s *Service) DeleteAuthor(ctx context.Context, actor *entities.User, id uint) error {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return err
	}

	author, err := s.store.GetAuthor(ctx, id)
	if err != nil {
		return translate(err, "author %d", id)
	}
	if err := s.store.DeleteAuthor(ctx, id); err != nil {
		return translate(err, "failed to delete author %d", id)
	}

	if s.audit != nil {
		s.audit.LogDelete(actor.ID, "author", idString(id), author.String())
	}
	return nil
}

func validateLifespan(in AuthorInput) error {
	if in.DateOfBirth != nil && in.DateOfDeath != nil && in.DateOfDeath.Before(*in.DateOfBirth) {
		return fmt.Errorf("%w: date of death is before date of birth", ErrInvalidInput)
	}
	return nil
}

// --- Books ---

func (s *Service) CreateBook(ctx context.Context, actor *entities.User, in BookInput) (*entities.Book, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}

	book := &entities.Book{Title: in.Title, Summary: in.Summary, ISBN: in.ISBN}
	if err := s.resolveBookRefs(ctx, book, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.logChange(actor, "book_create", "book", idString(book.ID), book.Title)
	return book, nil
}

func (s *Service) UpdateBook(ctx context.Context, actor *entities.User, id uint, in BookInput) (*entities.Book, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, translate(err, "book %d", id)
	}

	book.Title = in.Title
	book.Summary = in.Summary
	book.ISBN = in.ISBN
	if err := s.resolveBookRefs(ctx, book, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, translate(err, "failed to update book %d", id)
	}

	s.logChange(actor, "book_update", "book", idString(book.ID), book.Title)
	return book, nil
}

// DeleteBook removes a book; its copies remain without a book.
func (s *Service) DeleteBook(ctx context.Context, actor *entities.User, id uint) error {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return err
	}

	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return translate(err, "book %d", id)
	}
	if err := s.store.DeleteBook(ctx, id); err != nil {
		return translate(err, "failed to delete book %d", id)
	}

	if s.audit != nil {
		s.audit.LogDelete(actor.ID, "book", idString(id), book.Title)
	}
	return nil
}

func (s *Service) resolveBookRefs(ctx context.Context, book *entities.Book, in BookInput) error {
	book.AuthorID = nil
	book.Author = nil
	if in.AuthorID != nil {
		author, err := s.store.GetAuthor(ctx, *in.AuthorID)
		if err != nil {
			return reference(err, "author %d", *in.AuthorID)
		}
		book.AuthorID = &author.ID
		book.Author = author
	}

	genreIDs := dedupe(in.GenreIDs)
	genres, err := s.store.GenresByIDs(ctx, genreIDs)
	if err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}
	if len(genres) != len(genreIDs) {
		return fmt.Errorf("genre ids %v: %w", in.GenreIDs, ErrInvalidReference)
	}
	book.Genres = genres
	return nil
}

// --- Genres & languages ---

func (s *Service) CreateGenre(ctx context.Context, actor *entities.User, name string) (*entities.Genre, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}

	genre := &entities.Genre{Name: name}
	if err := s.store.CreateGenre(ctx, genre); err != nil {
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}

	s.logChange(actor, "genre_create", "genre", idString(genre.ID), genre.Name)
	return genre, nil
}

func (s *Service) CreateLanguage(ctx context.Context, actor *entities.User, name string) (*entities.Language, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}

	language := &entities.Language{Name: name}
	if err := s.store.CreateLanguage(ctx, language); err != nil {
		return nil, fmt.Errorf("failed to create language: %w", err)
	}

	s.logChange(actor, "language_create", "language", idString(language.ID), language.Name)
	return language, nil
}

// --- Copies ---

// CreateInstance adds a copy of an existing book. Status defaults to
// maintenance; on loan is refused since a new copy has no borrower.
func (s *Service) CreateInstance(ctx context.Context, actor *entities.User, in InstanceInput) (*entities.BookInstance, error) {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = entities.LoanStatusMaintenance
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	if status == entities.LoanStatusOnLoan {
		return nil, fmt.Errorf("%w: new copies cannot start on loan; lend them with a status change", ErrInvalidInput)
	}

	book, err := s.store.GetBook(ctx, in.BookID)
	if err != nil {
		return nil, reference(err, "book %d", in.BookID)
	}

	languageIDs := dedupe(in.LanguageIDs)
	languages, err := s.store.LanguagesByIDs(ctx, languageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load languages: %w", err)
	}
	if len(languages) != len(languageIDs) {
		return nil, fmt.Errorf("language ids %v: %w", in.LanguageIDs, ErrInvalidReference)
	}

	inst := &entities.BookInstance{
		BookID:    &book.ID,
		Imprint:   in.Imprint,
		Status:    status,
		Languages: languages,
	}
	if err := s.instances.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to create book instance: %w", err)
	}
	inst.Book = &entities.Book{ID: book.ID, Title: book.Title}

	s.logChange(actor, "book_instance_create", "book_instance", inst.ID.String(), book.Title)
	return inst, nil
}

// GetInstance returns a copy with its book and languages.
func (s *Service) GetInstance(ctx context.Context, id uuid.UUID) (*entities.BookInstance, error) {
	inst, err := s.instances.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "book instance %s", id)
	}
	return inst, nil
}

func (s *Service) DeleteInstance(ctx context.Context, actor *entities.User, id uuid.UUID) error {
	if err := access.Authorize(actor, access.MaintainCatalog).Err(); err != nil {
		return err
	}

	inst, err := s.instances.Get(ctx, id)
	if err != nil {
		return translate(err, "book instance %s", id)
	}
	if err := s.instances.Delete(ctx, id); err != nil {
		return translate(err, "failed to delete book instance %s", id)
	}

	if s.audit != nil {
		s.audit.LogDelete(actor.ID, "book_instance", id.String(), inst.String())
	}
	return nil
}

func (s *Service) logChange(actor *entities.User, action, entityType, entityID, name string) {
	if s.audit != nil {
		s.audit.LogCatalogChange(actor.ID, action, entityType, entityID, name)
	}
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
