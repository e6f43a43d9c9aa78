package repository

import (
	"context"
)

// Setting is one stored key/value pair. Values are JSON documents.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt int64
}

// SettingsRepository persists the application settings and session keys
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) ([]Setting, error)

	// WithTransaction runs fn against a repository bound to a single transaction
	WithTransaction(ctx context.Context, fn func(repo SettingsRepository) error) error
}
