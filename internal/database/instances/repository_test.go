package instances

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/entities"
)

var today = entities.NewDate(2026, time.October, 16)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "instances.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Genre{},
		&entities.Language{},
		&entities.Book{},
		&entities.BookInstance{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db), db
}

func createLoan(t *testing.T, repo *Repository, borrower *entities.User, due entities.Date) *entities.BookInstance {
	t.Helper()
	inst := &entities.BookInstance{
		Status:     entities.LoanStatusOnLoan,
		BorrowerID: &borrower.ID,
		DueBack:    &due,
	}
	require.NoError(t, repo.Create(context.Background(), inst))
	return inst
}

func createUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	u := &entities.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	english := &entities.Language{Name: "English"}
	require.NoError(t, db.Create(english).Error)
	book := &entities.Book{Title: "Middlemarch"}
	require.NoError(t, db.Create(book).Error)

	inst := &entities.BookInstance{
		BookID:    &book.ID,
		Imprint:   "Blackwood, 1871",
		Languages: []entities.Language{*english},
	}
	require.NoError(t, repo.Create(ctx, inst))
	assert.NotEqual(t, uuid.Nil, inst.ID)

	loaded, err := repo.Get(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LoanStatusMaintenance, loaded.Status)
	require.NotNil(t, loaded.Book)
	assert.Equal(t, "Middlemarch", loaded.Book.Title)
	require.Len(t, loaded.Languages, 1)
	assert.Equal(t, "English", loaded.Languages[0].Name)
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_UpdateColumns_OnlyWritesNamedColumns(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	reader := createUser(t, db, "reader")

	inst := createLoan(t, repo, reader, today)

	newDue := today.AddDays(14)
	stale := *inst
	stale.DueBack = &newDue
	stale.Imprint = "should not be written"
	require.NoError(t, repo.UpdateColumns(ctx, &stale, "due_back"))

	loaded, err := repo.Get(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, newDue.Equal(*loaded.DueBack))
	assert.Empty(t, loaded.Imprint)
}

func TestRepository_UpdateColumns_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	missing := &entities.BookInstance{ID: uuid.New(), Status: entities.LoanStatusAvailable}
	err := repo.UpdateColumns(context.Background(), missing, "status")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_OverdueLoans(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	reader := createUser(t, db, "reader")

	lastWeek := createLoan(t, repo, reader, today.AddDays(-7))
	yesterday := createLoan(t, repo, reader, today.AddDays(-1))
	createLoan(t, repo, reader, today)
	createLoan(t, repo, reader, today.AddDays(1))

	returned := today.AddDays(-3)
	require.NoError(t, repo.Create(ctx, &entities.BookInstance{
		Status:  entities.LoanStatusAvailable,
		DueBack: &returned,
	}))

	overdue, err := repo.OverdueLoans(ctx, today)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, lastWeek.ID, overdue[0].ID)
	assert.Equal(t, yesterday.ID, overdue[1].ID)
}

func TestRepository_LoansForBorrower(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	later := createLoan(t, repo, alice, today.AddDays(10))
	sooner := createLoan(t, repo, alice, today.AddDays(2))
	createLoan(t, repo, bob, today.AddDays(3))

	loans, err := repo.LoansForBorrower(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, sooner.ID, loans[0].ID)
	assert.Equal(t, later.ID, loans[1].ID)
	require.NotNil(t, loans[0].Borrower)
	assert.Equal(t, "alice", loans[0].Borrower.Username)

	all, err := repo.AllLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_Delete(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	inst := &entities.BookInstance{Imprint: "Faber"}
	require.NoError(t, repo.Create(ctx, inst))

	require.NoError(t, repo.Delete(ctx, inst.ID))
	assert.ErrorIs(t, repo.Delete(ctx, inst.ID), gorm.ErrRecordNotFound)
}
