package database

import (
	"context"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/entities"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Models lists every persisted entity in migration order.
var Models = []any{
	&entities.User{},
	&entities.Author{},
	&entities.Genre{},
	&entities.Language{},
	&entities.Book{},
	&entities.BookInstance{},
	&entities.AuditEvent{},
}

type Options struct {
	Driver   string // DriverSQLite (default) or DriverPostgres
	Path     string // SQLite file path or ":memory:"
	DSN      string // Postgres connection string
	LogLevel logger.LogLevel
}

type Database struct {
	DB *gorm.DB
}

// Open connects to the configured store and migrates the schema.
func Open(opts Options) (*Database, error) {
	dialector, where, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully (%s)", where)

	return &Database{DB: db}, nil
}

func dialectorFor(opts Options) (gorm.Dialector, string, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		if opts.Path == "" {
			return nil, "", fmt.Errorf("sqlite driver requires a database path")
		}
		return sqlite.Open(opts.Path), "sqlite at " + opts.Path, nil
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, "", fmt.Errorf("postgres driver requires DATABASE_DSN")
		}
		return postgres.Open(opts.DSN), "postgres", nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
