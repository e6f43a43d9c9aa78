package database

import (
	"context"
	"database/sql"
)

// Service abstracts connection management and migrations of the settings store
type Service interface {
	Connect(ctx context.Context, config *Config) error
	Close() error
	Health(ctx context.Context) error

	DB() *sql.DB

	Migrate(ctx context.Context) error
	GetMigrationVersion(ctx context.Context) (int64, error)
}

// MigrationManager handles schema evolution
type MigrationManager interface {
	RunMigrations(ctx context.Context) error
	GetCurrentVersion(ctx context.Context) (int64, error)
	ValidateMigrations() error
}
