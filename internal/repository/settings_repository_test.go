package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"etcherng/internal/database"
	repoerrors "etcherng/internal/infrastructure/errors"
	"etcherng/internal/testutils"
)

func setupTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	ctx := context.Background()
	logger := testutils.NewRecordingLogger()
	dbService := database.NewSQLiteService(logger)
	if err := dbService.Connect(ctx, database.TestConfig()); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { _ = dbService.Close() })

	if err := dbService.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo := NewSQLiteRepository(dbService, logger)
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }
	return repo
}

func TestNewSQLiteRepositoryDefaults(t *testing.T) {
	repo := setupTestRepository(t)

	if repo.db == nil || repo.conn == nil {
		t.Fatal("repository has no connection")
	}
	if repo.retryConfig == nil {
		t.Fatal("retry config is nil")
	}
	if repo.retryConfig.Logger == nil {
		t.Error("retry config should log through the repository logger")
	}
}

func TestSetAndGet(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "fullscreen", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := repo.Get(ctx, "fullscreen")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "true" {
		t.Errorf("Get() = %q, want %q", value, "true")
	}
}

func TestSetOverwrites(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "windowDetails", `{"position":[1,2]}`); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := repo.Set(ctx, "windowDetails", `{"position":[3,4]}`); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	value, err := repo.Get(ctx, "windowDetails")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != `{"position":[3,4]}` {
		t.Errorf("Get() = %q, last write should win", value)
	}
}

func TestGetMissingKey(t *testing.T) {
	repo := setupTestRepository(t)

	_, err := repo.Get(context.Background(), "absent")
	if !repoerrors.IsNotFound(err) {
		t.Errorf("Get() error = %v, want not found", err)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, ""); !repoerrors.IsValidation(err) {
		t.Errorf("Get(\"\") error = %v", err)
	}
	if err := repo.Set(ctx, "", "x"); !repoerrors.IsValidation(err) {
		t.Errorf("Set(\"\") error = %v", err)
	}
	if err := repo.Delete(ctx, ""); !repoerrors.IsValidation(err) {
		t.Errorf("Delete(\"\") error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "verify", "false"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Delete(ctx, "verify"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "verify"); !repoerrors.IsNotFound(err) {
		t.Errorf("Get() after Delete error = %v, want not found", err)
	}
	if err := repo.Delete(ctx, "verify"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestAllOrderedByKey(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	for _, kv := range [][2]string{{"verify", "true"}, {"autoBlockmapping", "true"}, {"fullscreen", "false"}} {
		if err := repo.Set(ctx, kv[0], kv[1]); err != nil {
			t.Fatalf("Set(%s) error = %v", kv[0], err)
		}
	}

	settings, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(settings) != 3 {
		t.Fatalf("All() returned %d settings, want 3", len(settings))
	}

	wantKeys := []string{"autoBlockmapping", "fullscreen", "verify"}
	for i, s := range settings {
		if s.Key != wantKeys[i] {
			t.Errorf("settings[%d].Key = %q, want %q", i, s.Key, wantKeys[i])
		}
		if s.UpdatedAt != 1700000000 {
			t.Errorf("settings[%d].UpdatedAt = %d", i, s.UpdatedAt)
		}
	}
}

func TestAllEmpty(t *testing.T) {
	repo := setupTestRepository(t)

	settings, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(settings) != 0 {
		t.Errorf("All() = %v, want empty", settings)
	}
}

func TestWithTransactionCommits(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx SettingsRepository) error {
		if err := tx.Set(ctx, "verify", "false"); err != nil {
			return err
		}
		return tx.Set(ctx, "decompressFirst", "false")
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}

	settings, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(settings) != 2 {
		t.Errorf("expected 2 committed settings, got %d", len(settings))
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTransaction(ctx, func(tx SettingsRepository) error {
		if err := tx.Set(ctx, "verify", "false"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want boom", err)
	}

	if _, err := repo.Get(ctx, "verify"); !repoerrors.IsNotFound(err) {
		t.Errorf("rolled back key still present: %v", err)
	}
}

func TestNestedTransactionRejected(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx SettingsRepository) error {
		return tx.WithTransaction(ctx, func(SettingsRepository) error { return nil })
	})
	if !repoerrors.IsConnection(err) {
		t.Errorf("nested WithTransaction() error = %v, want connection error", err)
	}
}
