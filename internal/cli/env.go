package cli

import (
	"context"
	"fmt"
	"io"

	"etcherng/internal/config"
	"etcherng/internal/database"
	"etcherng/internal/infrastructure/logging"
	"etcherng/internal/repository"
)

// Env holds the configuration, logger and settings store shared by the commands
type Env struct {
	Manager *config.Manager
	Config  *config.Config
	Logger  *logging.ZerologLogger

	db database.Service
}

// NewEnv loads config.toml and builds the logger it describes
func NewEnv(stderr io.Writer) (*Env, error) {
	bootLogger, err := logging.New(logging.Config{Level: "warn", Format: "console", Output: stderr})
	if err != nil {
		return nil, err
	}

	manager, err := config.NewManager(config.WithLogger(bootLogger))
	if err != nil {
		return nil, err
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	cfg := manager.Get()

	logger, err := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		File:      cfg.Log.File,
		MaxSizeKB: cfg.Log.MaxSizeKB,
		Output:    stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &Env{Manager: manager, Config: cfg, Logger: logger}, nil
}

// OpenStore connects to the settings store and brings its schema up to date
func (e *Env) OpenStore(ctx context.Context) (*repository.SQLiteRepository, error) {
	if e.db == nil {
		dbConfig := database.ConfigForEnvironment(e.Config.Environment, e.Manager.DataDir())
		if !dbConfig.IsInMemory() {
			dbConfig.Path = e.Config.Database.Path
		}
		if err := dbConfig.LoadFromEnvironment(); err != nil {
			return nil, err
		}

		service := database.NewSQLiteService(e.Logger)
		if err := service.Connect(ctx, dbConfig); err != nil {
			return nil, fmt.Errorf("failed to open settings store: %w", err)
		}
		if dbConfig.AutoMigrate {
			if err := service.Migrate(ctx); err != nil {
				_ = service.Close()
				return nil, fmt.Errorf("failed to migrate settings store: %w", err)
			}
		}
		e.db = service
	}

	return repository.NewSQLiteRepository(e.db, e.Logger), nil
}

// Close releases the store and the log file
func (e *Env) Close() error {
	var dbErr error
	if e.db != nil {
		dbErr = e.db.Close()
		e.db = nil
	}
	if err := e.Logger.Close(); err != nil && dbErr == nil {
		return err
	}
	return dbErr
}
