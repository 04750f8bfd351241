package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/financeai/internal/store"
)

// NewCache opens a migrated in-memory snapshot cache that is closed when
// the test ends.
func NewCache(t *testing.T) *store.SQLiteStore {
	t.Helper()

	cache, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "opening in-memory cache")
	t.Cleanup(func() {
		require.NoError(t, cache.Close())
	})
	return cache
}

// SaveSnapshots stores one SampleSnapshot per fetch time for account.
func SaveSnapshots(t *testing.T, cache store.Store, account string, fetched ...time.Time) {
	t.Helper()

	for _, at := range fetched {
		require.NoError(t, cache.SaveSnapshot(context.Background(), account, SampleSnapshot(at)))
	}
}
