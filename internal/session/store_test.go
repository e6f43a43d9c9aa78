package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etcherng/internal/database"
	"etcherng/internal/repository"
	"etcherng/internal/testutils"
)

func newSQLiteStore(t *testing.T) (*Store, *repository.SQLiteRepository) {
	t.Helper()
	ctx := context.Background()
	logger := testutils.NewRecordingLogger()

	db := database.NewSQLiteService(logger)
	require.NoError(t, db.Connect(ctx, database.TestConfig()))
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repo := repository.NewSQLiteRepository(db, logger)
	return NewStore(repo, logger), repo
}

func TestStore_RoundTrip(t *testing.T) {
	store, repo := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, WindowSession{Position: [2]int{10, 20}}))

	raw, err := repo.Get(ctx, Key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":[10,20]}`, raw)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, [2]int{10, 20}, got.Position)
}

func TestStore_LoadAbsent(t *testing.T) {
	store, _ := newSQLiteStore(t)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, WindowSession{Position: [2]int{1, 1}}))
	require.NoError(t, store.Save(ctx, WindowSession{Position: [2]int{-1920, 40}}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, [2]int{-1920, 40}, got.Position)
}

func TestStore_CorruptRecordIsAbsent(t *testing.T) {
	store, repo := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, Key, "{not json"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Clear(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, WindowSession{Position: [2]int{5, 6}}))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
