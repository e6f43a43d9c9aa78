package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"etcherng/internal/database"
	repoerrors "etcherng/internal/infrastructure/errors"
	"etcherng/internal/infrastructure/logging"
)

const (
	getSettingQuery    = `SELECT value FROM settings WHERE key = ?`
	upsertSettingQuery = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteSettingQuery = `DELETE FROM settings WHERE key = ?`
	listSettingsQuery  = `SELECT key, value, updated_at FROM settings ORDER BY key`
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements SettingsRepository on the settings table
type SQLiteRepository struct {
	db          *sql.DB
	conn        dbtx
	retryConfig *repoerrors.RetryConfig
	logger      logging.Logger
	now         func() time.Time
}

var _ SettingsRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository over a connected database service
func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithConfig(dbService, nil, logger)
}

// NewSQLiteRepositoryWithConfig creates a repository with a custom retry policy
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, logger logging.Logger) *SQLiteRepository {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	if retryConfig.Logger == nil {
		retryConfig.Logger = logger
	}

	db := dbService.DB()
	return &SQLiteRepository{
		db:          db,
		conn:        db,
		retryConfig: retryConfig,
		logger:      logger,
		now:         time.Now,
	}
}

// Get returns the raw value stored under key, or a NotFound error
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", repoerrors.HandleValidationError("Get", "key", key, "key cannot be empty")
	}

	var value string
	err := repoerrors.WithRetry(ctx, r.retryConfig, "Get", func() error {
		err := r.conn.QueryRowContext(ctx, getSettingQuery, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return repoerrors.HandleNotFound("Get", "setting", key)
		}
		if err != nil {
			return r.wrap("Get", err, key)
		}
		return nil
	})
	return value, err
}

// Set inserts or replaces the value under key
func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return repoerrors.HandleValidationError("Set", "key", key, "key cannot be empty")
	}

	start := time.Now()
	err := repoerrors.WithRetry(ctx, r.retryConfig, "Set", func() error {
		if _, err := r.conn.ExecContext(ctx, upsertSettingQuery, key, value, r.now().Unix()); err != nil {
			return r.wrap("Set", err, key)
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "Set", time.Since(start), map[string]any{"key": key})
	}
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if key == "" {
		return repoerrors.HandleValidationError("Delete", "key", key, "key cannot be empty")
	}

	return repoerrors.WithRetry(ctx, r.retryConfig, "Delete", func() error {
		if _, err := r.conn.ExecContext(ctx, deleteSettingQuery, key); err != nil {
			return r.wrap("Delete", err, key)
		}
		return nil
	})
}

// All returns every stored pair ordered by key
func (r *SQLiteRepository) All(ctx context.Context) ([]Setting, error) {
	var settings []Setting

	err := repoerrors.WithRetry(ctx, r.retryConfig, "All", func() error {
		rows, err := r.conn.QueryContext(ctx, listSettingsQuery)
		if err != nil {
			return r.wrap("All", err, "")
		}
		defer rows.Close()

		settings = settings[:0]
		for rows.Next() {
			var s Setting
			if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
				return r.wrap("All", err, "")
			}
			settings = append(settings, s)
		}
		if err := rows.Err(); err != nil {
			return r.wrap("All", err, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// WithTransaction executes fn within a transaction, retrying busy databases
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo SettingsRepository) error) error {
	if r.db == nil {
		return repoerrors.HandleConnectionError("WithTransaction", "repository is already bound to a transaction")
	}

	start := time.Now()
	err := repoerrors.WithRetry(ctx, r.retryConfig, "WithTransaction", func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return r.wrap("WithTransaction.Begin", err, "")
		}

		committed := false
		defer func() {
			if committed {
				return
			}
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				r.logger.Debug("Failed to rollback settings transaction", "rollback_error", rollbackErr)
			}
		}()

		txRepo := &SQLiteRepository{
			conn: tx,
			// Nested retries inside a transaction would replay half of it
			retryConfig: &repoerrors.RetryConfig{MaxAttempts: 1},
			logger:      r.logger,
			now:         r.now,
		}

		if err := fn(txRepo); err != nil {
			r.logger.Debug("Settings transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			return r.wrap("WithTransaction.Commit", err, "")
		}
		committed = true
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "WithTransaction", time.Since(start), nil)
	}
	return err
}

// wrap classifies err and logs it unless another attempt will follow
func (r *SQLiteRepository) wrap(op string, err error, key string) error {
	var ctxMap map[string]string
	if key != "" {
		ctxMap = map[string]string{"key": key}
	}
	storeErr := repoerrors.NewStoreErrorWithContext(op, err, repoerrors.ClassifyError(err), ctxMap)

	if storeErr.IsRetryable() {
		r.logger.Debug("Retryable settings store error", "operation", op, "error", err)
	} else {
		logging.LogError(r.logger, storeErr, op, map[string]any{"key": key})
	}
	return storeErr
}
