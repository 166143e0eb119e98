package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/entities"
)

func TestOpen_SQLiteMigratesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	db, err := Open(Options{Driver: DriverSQLite, Path: dbPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer db.Close()

	for _, model := range Models {
		assert.True(t, db.DB.Migrator().HasTable(model))
	}
	assert.True(t, db.DB.Migrator().HasTable("book_genres"))
	assert.True(t, db.DB.Migrator().HasTable("book_instance_languages"))

	require.NoError(t, db.Ping(context.Background()))
}

func TestOpen_InstanceGetsRandomID(t *testing.T) {
	db, err := Open(Options{Path: filepath.Join(t.TempDir(), "catalog.db"), LogLevel: logger.Silent})
	require.NoError(t, err)
	defer db.Close()

	first := &entities.BookInstance{Imprint: "Penguin, 1999"}
	second := &entities.BookInstance{Imprint: "Penguin, 2001"}
	require.NoError(t, db.DB.Create(first).Error)
	require.NoError(t, db.DB.Create(second).Error)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, entities.LoanStatusMaintenance, first.Status)
}

func TestOpen_DueDateRoundTrip(t *testing.T) {
	db, err := Open(Options{Path: filepath.Join(t.TempDir(), "catalog.db"), LogLevel: logger.Silent})
	require.NoError(t, err)
	defer db.Close()

	due := entities.NewDate(2026, 3, 14)
	inst := &entities.BookInstance{Status: entities.LoanStatusOnLoan, DueBack: &due}
	require.NoError(t, db.DB.Create(inst).Error)

	var loaded entities.BookInstance
	require.NoError(t, db.DB.First(&loaded, "id = ?", inst.ID).Error)
	require.NotNil(t, loaded.DueBack)
	assert.True(t, due.Equal(*loaded.DueBack))
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown driver", Options{Driver: "mysql", Path: "x.db"}},
		{"sqlite without path", Options{Driver: DriverSQLite}},
		{"postgres without dsn", Options{Driver: DriverPostgres}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.opts)
			assert.Error(t, err)
		})
	}
}
