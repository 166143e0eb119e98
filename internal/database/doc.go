// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or Postgres), migrations
//	├── catalog/         # Authors, books, genres, languages
//	├── instances/       # Book copies and loan queries
//	├── audit/           # Audit trail
//	└── users/           # User lookups
//
// # Using Sub-packages
//
//	db, err := database.Open(database.Options{Driver: "sqlite", Path: "./catalog.db"})
//
//	catalogRepo := catalog.NewRepository(db.DB)
//	instanceRepo := instances.NewRepository(db.DB)
//
//	author, err := catalogRepo.GetAuthor(ctx, 12)
//	overdue, err := instanceRepo.OverdueLoans(ctx, entities.DateOf(time.Now()))
//
// Repositories return gorm errors unchanged; callers translate
// gorm.ErrRecordNotFound into their own not-found errors.
//
// # Orphan policy
//
// Deleting an author or a book never deletes dependents. The delete methods
// null the dependents' references inside the same transaction, so the
// behavior does not depend on the store enforcing ON DELETE SET NULL.
package database
