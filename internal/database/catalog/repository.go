// Package catalog provides database operations for authors, books, genres and
// languages.
//
// # Usage
//
//	repo := catalog.NewRepository(db)
//	books, total, err := repo.ListBooks(ctx, 10, 0)
package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/entities"
)

// Repository handles catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func orderAuthors(db *gorm.DB) *gorm.DB {
	return db.Order("last_name ASC, first_name ASC")
}

func orderInstances(db *gorm.DB) *gorm.DB {
	return db.Order("due_back ASC")
}

// likePrefix builds a case-insensitive LIKE pattern matching values that
// start with prefix, treating LIKE wildcards in prefix literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.ToLower(prefix)) + "%"
}

// --- Authors ---

// ListAuthors returns one page of authors in display order and the total count.
func (r *Repository) ListAuthors(ctx context.Context, limit, offset int) ([]entities.Author, int64, error) {
	var authors []entities.Author
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Author{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(orderAuthors).Limit(limit).Offset(offset).Find(&authors).Error
	return authors, total, err
}

// GetAuthor returns an author with their books.
func (r *Repository) GetAuthor(ctx context.Context, id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB { return db.Order("title ASC") }).
		First(&author, id).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *Repository) CreateAuthor(ctx context.Context, author *entities.Author) error {
	return r.db.WithContext(ctx).Omit("Books").Create(author).Error
}

func (r *Repository) UpdateAuthor(ctx context.Context, author *entities.Author) error {
	result := r.db.WithContext(ctx).Model(author).
		Select("first_name", "last_name", "date_of_birth", "date_of_death", "updated_at").
		Updates(author)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAuthor removes an author. Their books stay in the catalog with the
// author reference cleared.
func (r *Repository) DeleteAuthor(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Book{}).Where("author_id = ?", id).
			Update("author_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Author{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SearchAuthors returns authors whose first name starts with firstPrefix or
// whose last name starts with lastPrefix, ignoring case.
func (r *Repository) SearchAuthors(ctx context.Context, firstPrefix, lastPrefix string, limit int) ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.WithContext(ctx).
		Where(`LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`,
			likePrefix(firstPrefix), likePrefix(lastPrefix)).
		Scopes(orderAuthors).
		Limit(limit).
		Find(&authors).Error
	return authors, err
}

// AllAuthors returns up to limit authors in display order.
func (r *Repository) AllAuthors(ctx context.Context, limit int) ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.WithContext(ctx).Scopes(orderAuthors).Limit(limit).Find(&authors).Error
	return authors, err
}

// --- Books ---

// ListBooks returns one page of books ordered by title and the total count.
func (r *Repository) ListBooks(ctx context.Context, limit, offset int) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Book{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Author").Preload("Genres").
		Order("title ASC").Limit(limit).Offset(offset).Find(&books).Error
	return books, total, err
}

// GetBook returns a book with its author, genres and copies.
func (r *Repository) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Genres").
		Preload("Instances", orderInstances).
		Preload("Instances.Languages").
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook inserts a book and links it to the genres already set on it.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Omit("Author", "Instances", "Genres.*").Create(book).Error
}

// UpdateBook writes the book's own columns and replaces its genre set.
func (r *Repository) UpdateBook(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(book).
			Select("title", "author_id", "summary", "isbn", "updated_at").
			Updates(book)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(book).Association("Genres").Replace(book.Genres)
	})
}

// DeleteBook removes a book. Its copies stay with the book reference cleared.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.BookInstance{}).Where("book_id = ?", id).
			Update("book_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.Book{ID: id}).Association("Genres").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// NovelCount returns how many distinct books carry a genre named "novel",
// ignoring case.
func (r *Repository) NovelCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Joins("JOIN book_genres ON book_genres.book_id = books.id").
		Joins("JOIN genres ON genres.id = book_genres.genre_id").
		Where("LOWER(genres.name) = ?", "novel").
		Distinct("books.id").
		Count(&count).Error
	return count, err
}

// --- Genres & languages ---

func (r *Repository) CreateGenre(ctx context.Context, genre *entities.Genre) error {
	return r.db.WithContext(ctx).Create(genre).Error
}

func (r *Repository) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.WithContext(ctx).Order("name ASC").Find(&genres).Error
	return genres, err
}

// GenresByIDs loads the genres with the given ids. Unknown ids are skipped.
func (r *Repository) GenresByIDs(ctx context.Context, ids []uint) ([]entities.Genre, error) {
	var genres []entities.Genre
	if len(ids) == 0 {
		return genres, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&genres).Error
	return genres, err
}

// SearchGenres returns genres whose name starts with prefix, ignoring case.
func (r *Repository) SearchGenres(ctx context.Context, prefix string, limit int) ([]entities.Genre, error) {
	var genres []entities.Genre
	query := r.db.WithContext(ctx).Order("name ASC").Limit(limit)
	if prefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePrefix(prefix))
	}
	err := query.Find(&genres).Error
	return genres, err
}

func (r *Repository) CreateLanguage(ctx context.Context, language *entities.Language) error {
	return r.db.WithContext(ctx).Create(language).Error
}

func (r *Repository) ListLanguages(ctx context.Context) ([]entities.Language, error) {
	var languages []entities.Language
	err := r.db.WithContext(ctx).Order("name ASC").Find(&languages).Error
	return languages, err
}

// LanguagesByIDs loads the languages with the given ids. Unknown ids are skipped.
func (r *Repository) LanguagesByIDs(ctx context.Context, ids []uint) ([]entities.Language, error) {
	var languages []entities.Language
	if len(ids) == 0 {
		return languages, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&languages).Error
	return languages, err
}

// --- Counts ---

// Counts holds the catalog totals shown on the index page.
type Counts struct {
	Books              int64 `json:"books"`
	Instances          int64 `json:"instances"`
	AvailableInstances int64 `json:"available_instances"`
	Authors            int64 `json:"authors"`
	Genres             int64 `json:"genres"`
	Languages          int64 `json:"languages"`
}

// Counts returns catalog totals.
func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := r.db.WithContext(ctx)

	if err := db.Model(&entities.Book{}).Count(&c.Books).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.BookInstance{}).Count(&c.Instances).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.BookInstance{}).
		Where("status = ?", entities.LoanStatusAvailable).
		Count(&c.AvailableInstances).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.Author{}).Count(&c.Authors).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.Genre{}).Count(&c.Genres).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.Language{}).Count(&c.Languages).Error; err != nil {
		return c, err
	}
	return c, nil
}
