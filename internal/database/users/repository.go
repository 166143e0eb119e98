// Package users provides database operations for looking up library users.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	matches, err := repo.SearchByUsernamePrefix(ctx, "jo", 20)
package users

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/entities"
)

// Repository handles user lookups. Account creation and credentials live in
// the auth service.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with the given ID exists.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// SearchByUsernamePrefix returns users whose username starts with prefix,
// ignoring case. An empty prefix matches everyone.
func (r *Repository) SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]entities.User, error) {
	var users []entities.User
	query := r.db.WithContext(ctx).Order("username ASC").Limit(limit)
	if prefix != "" {
		escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(prefix))
		query = query.Where(`LOWER(username) LIKE ? ESCAPE '\'`, escaped+"%")
	}
	err := query.Find(&users).Error
	return users, err
}
