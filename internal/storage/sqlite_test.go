package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapledger/snapledger/internal/common"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LatestPayload(context.Background())
	assert.ErrorIs(t, err, common.ErrNoStoredPayload)

	history, err := store.PayloadHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSQLiteStore_LatestWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePayload(ctx, "2024-01-01", []byte(`{"version":"2024-01-01"}`)))
	require.NoError(t, store.SavePayload(ctx, "2024-02-01", []byte(`{"version":"2024-02-01"}`)))

	payload, err := store.LatestPayload(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"2024-02-01"}`, string(payload))
}

func TestSQLiteStore_SaveValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SavePayload(ctx, "", []byte(`{}`)))
	assert.Error(t, store.SavePayload(ctx, "v1", nil))
}

func TestSQLiteStore_History(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	versions := []string{"v1", "v2", "v3"}
	for _, v := range versions {
		require.NoError(t, store.SavePayload(ctx, v, []byte(`{}`)))
	}

	history, err := store.PayloadHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "v3", history[0].Version)
	assert.Equal(t, "v2", history[1].Version)
	assert.Equal(t, "v1", history[2].Version)
	for _, rec := range history {
		assert.False(t, rec.AcceptedAt.IsZero())
	}

	capped, err := store.PayloadHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
	assert.Equal(t, "v3", capped[0].Version)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SavePayload(ctx, "v1", []byte(`{"version":"v1"}`)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	payload, err := reopened.LatestPayload(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"v1"}`, string(payload))
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}
