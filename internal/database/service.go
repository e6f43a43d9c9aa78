package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dberrors "etcherng/internal/infrastructure/errors"
	"etcherng/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteService implements Service for the local settings store.
//
// Lifecycle: NewSQLiteService, Connect, Migrate, use DB(), Close.
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{
		logger: logger,
	}
}

// Connect opens the store, replacing any previous connection
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		return dberrors.HandleValidationError("Connect", "config", "nil", "configuration is required")
	}
	if err := config.Validate(); err != nil {
		return dberrors.HandleValidationError("Connect", "config", config.Path, err.Error())
	}
	s.config = config

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}

	s.db = db
	s.migrationRunner = NewMigrationRunner(db, s.logger)

	s.logger.Info("Connected to settings store", "path", config.Path)
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return dberrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}

	s.db = nil
	s.migrationRunner = nil

	s.logger.Info("Closed settings store")
	return nil
}

// Migrate validates and runs the embedded migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Migrate", "database not connected")
	}

	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "validation",
		})
	}

	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "execution",
		})
	}

	return nil
}

// Health pings the database and runs a trivial query
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Health", "database not connected")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{
			"phase": "ping",
		})
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{
			"phase": "query",
		})
	}

	return nil
}

// DB returns the underlying connection for repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetMigrationVersion returns the current migration version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, dberrors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}

	version, err := s.migrationRunner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, dberrors.WrapDatabaseError("GetMigrationVersion", err)
	}
	return version, nil
}

// configureConnectionPool keeps SQLite to a single writer unless WAL is enabled
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.ForceSingleConnection || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		// an in-memory database disappears with its last connection
		if config.IsInMemory() {
			db.SetConnMaxLifetime(0)
			db.SetConnMaxIdleTime(0)
			return
		}
		s.logger.Debug("Configured settings store for single connection mode",
			"journalMode", config.JournalMode)
	} else {
		maxConns := min(max(config.MaxConnections, 1), 4)
		idleConns := max(min(config.MaxIdleConns, maxConns), 1)
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(idleConns)
		s.logger.Debug("Configured settings store connection pool",
			"maxOpenConns", maxConns, "maxIdleConns", idleConns)
	}

	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
}
