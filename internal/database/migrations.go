package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"etcherng/internal/infrastructure/logging"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrationRunner applies the embedded schema to the settings store
type MigrationRunner struct {
	db     *sql.DB
	logger logging.Logger
}

var _ MigrationManager = (*MigrationRunner)(nil)

// NewMigrationRunner creates a runner for db
func NewMigrationRunner(db *sql.DB, logger logging.Logger) *MigrationRunner {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &MigrationRunner{db: db, logger: logger}
}

func migrationFS() (fs.FS, error) {
	return fs.Sub(embedMigrations, "migrations")
}

func (mr *MigrationRunner) provider() (*goose.Provider, error) {
	if mr.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	fsys, err := migrationFS()
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, mr.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// RunMigrations applies every pending migration
func (mr *MigrationRunner) RunMigrations(ctx context.Context) error {
	provider, err := mr.provider()
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, result := range results {
		mr.logger.Debug("Applied migration",
			"version", result.Source.Version,
			"duration_ms", result.Duration.Milliseconds())
	}

	if version, err := provider.GetDBVersion(ctx); err == nil {
		mr.logger.Info("Settings store migrated", "version", version, "applied", len(results))
	}
	return nil
}

// GetCurrentVersion returns the highest applied migration
func (mr *MigrationRunner) GetCurrentVersion(ctx context.Context) (int64, error) {
	provider, err := mr.provider()
	if err != nil {
		return 0, err
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// ValidateMigrations checks every embedded file carries a unique version number
func (mr *MigrationRunner) ValidateMigrations() error {
	fsys, err := migrationFS()
	if err != nil {
		return err
	}
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no migrations found in embedded filesystem")
	}

	seen := make(map[int64]string, len(names))
	for _, name := range names {
		version, err := goose.NumericComponent(name)
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("migrations %s and %s share version %d", prev, name, version)
		}
		seen[version] = name
	}

	mr.logger.Debug("Found embedded migrations", "count", len(names))
	return nil
}
