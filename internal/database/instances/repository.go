// Package instances provides database operations for book copies and the
// loan queries built on them.
//
// # Usage
//
//	repo := instances.NewRepository(db)
//	overdue, err := repo.OverdueLoans(ctx, entities.DateOf(time.Now()))
package instances

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/entities"
)

// Repository handles book instance database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new instances repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func withLoanDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Book").Preload("Book.Author").Preload("Borrower").Preload("Languages")
}

func onLoan(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", entities.LoanStatusOnLoan).Order("due_back ASC")
}

// Get returns a copy with its book, borrower and languages.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*entities.BookInstance, error) {
	var inst entities.BookInstance
	err := r.db.WithContext(ctx).Scopes(withLoanDetails).First(&inst, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// Create inserts a copy and links it to the languages already set on it.
func (r *Repository) Create(ctx context.Context, inst *entities.BookInstance) error {
	return r.db.WithContext(ctx).Omit("Book", "Borrower", "Languages.*").Create(inst).Error
}

// UpdateColumns writes the named columns of a single copy.
func (r *Repository) UpdateColumns(ctx context.Context, inst *entities.BookInstance, columns ...string) error {
	result := r.db.WithContext(ctx).Model(inst).
		Select(append(columns, "updated_at")).
		Updates(inst)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a copy and its language links.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.BookInstance{ID: id}).Association("Languages").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&entities.BookInstance{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// OverdueLoans returns copies on loan that were due back before asOf.
func (r *Repository) OverdueLoans(ctx context.Context, asOf entities.Date) ([]entities.BookInstance, error) {
	var loans []entities.BookInstance
	err := r.db.WithContext(ctx).
		Scopes(onLoan, withLoanDetails).
		Where("due_back IS NOT NULL AND due_back < ?", asOf).
		Find(&loans).Error
	return loans, err
}

// LoansForBorrower returns the copies currently on loan to a user.
func (r *Repository) LoansForBorrower(ctx context.Context, userID uint) ([]entities.BookInstance, error) {
	var loans []entities.BookInstance
	err := r.db.WithContext(ctx).
		Scopes(onLoan, withLoanDetails).
		Where("borrower_id = ?", userID).
		Find(&loans).Error
	return loans, err
}

// AllLoans returns every copy currently on loan.
func (r *Repository) AllLoans(ctx context.Context) ([]entities.BookInstance, error) {
	var loans []entities.BookInstance
	err := r.db.WithContext(ctx).Scopes(onLoan, withLoanDetails).Find(&loans).Error
	return loans, err
}
