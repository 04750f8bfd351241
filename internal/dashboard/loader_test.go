package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/dashboard"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/store"
	"github.com/nhle/financeai/tests/testutil"
)

type fakeFetcher struct {
	snap model.Snapshot
	errs map[string]error
}

func (f *fakeFetcher) DashboardStats(context.Context) (*model.DashboardStats, error) {
	if err := f.errs[dashboard.PanelStats]; err != nil {
		return nil, err
	}
	return &f.snap.Stats, nil
}

func (f *fakeFetcher) SpendingAnalytics(context.Context) (*model.SpendingAnalytics, error) {
	if err := f.errs[dashboard.PanelSpending]; err != nil {
		return nil, err
	}
	return &f.snap.Spending, nil
}

func (f *fakeFetcher) Transactions(context.Context) ([]model.Transaction, error) {
	if err := f.errs[dashboard.PanelTransactions]; err != nil {
		return nil, err
	}
	return f.snap.Transactions, nil
}

func (f *fakeFetcher) Goals(context.Context) ([]model.Goal, error) {
	if err := f.errs[dashboard.PanelGoals]; err != nil {
		return nil, err
	}
	return f.snap.Goals, nil
}

var errOffline = &api.TransportError{Method: http.MethodGet, Err: errors.New("connection refused")}

func allFailed() map[string]error {
	return map[string]error{
		dashboard.PanelStats:        errOffline,
		dashboard.PanelSpending:     errOffline,
		dashboard.PanelTransactions: errOffline,
		dashboard.PanelGoals:        errOffline,
	}
}

func TestLoad_FreshIsCached(t *testing.T) {
	s := testutil.NewCache(t)
	fetcher := &fakeFetcher{snap: testutil.SampleSnapshot(time.Time{})}
	loader := dashboard.NewLoader(fetcher, s, "alice@example.com", zerolog.Nop())

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Stale)
	assert.Len(t, snap.Transactions, 2)
	assert.False(t, snap.FetchedAt.IsZero())

	cached, err := s.LatestSnapshot(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, cached.Goals, 2)
}

func TestLoad_PartialFailureUsesCache(t *testing.T) {
	s := testutil.NewCache(t)
	cachedSnap := testutil.SampleSnapshot(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveSnapshot(context.Background(), "alice@example.com", cachedSnap))

	fresh := testutil.SampleSnapshot(time.Time{})
	fresh.Stats.TotalBalance = decimal.NewFromInt(30000)
	fetcher := &fakeFetcher{
		snap: fresh,
		errs: map[string]error{dashboard.PanelGoals: errOffline},
	}
	loader := dashboard.NewLoader(fetcher, s, "alice@example.com", zerolog.Nop())

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Stale)
	assert.True(t, decimal.NewFromInt(30000).Equal(snap.Stats.TotalBalance))
	require.Len(t, snap.Goals, 2)
	assert.Equal(t, "Emergency Fund", snap.Goals[0].Title)
}

func TestLoad_OfflineFallsBackToCache(t *testing.T) {
	s := testutil.NewCache(t)
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveSnapshot(context.Background(), "alice@example.com", testutil.SampleSnapshot(fetched)))

	loader := dashboard.NewLoader(&fakeFetcher{errs: allFailed()}, s, "alice@example.com", zerolog.Nop())

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Stale)
	assert.True(t, snap.FetchedAt.Equal(fetched))
	assert.Len(t, snap.Transactions, 2)
}

func TestLoad_OfflineWithoutCache(t *testing.T) {
	loader := dashboard.NewLoader(&fakeFetcher{errs: allFailed()}, nil, "alice@example.com", zerolog.Nop())

	_, err := loader.Load(context.Background())
	require.Error(t, err)

	var panelErr *dashboard.PanelError
	require.ErrorAs(t, err, &panelErr)
	assert.Len(t, panelErr.Errs, 4)
	assert.True(t, api.IsTransport(err))
}

func TestLoad_UnauthorizedIsNotMasked(t *testing.T) {
	s := testutil.NewCache(t)
	require.NoError(t, s.SaveSnapshot(context.Background(), "alice@example.com", testutil.SampleSnapshot(time.Now())))

	unauthorized := &api.ServerError{StatusCode: http.StatusUnauthorized, Detail: "Could not validate credentials"}
	fetcher := &fakeFetcher{
		snap: testutil.SampleSnapshot(time.Time{}),
		errs: map[string]error{dashboard.PanelStats: unauthorized},
	}
	loader := dashboard.NewLoader(fetcher, s, "alice@example.com", zerolog.Nop())

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

func TestCached(t *testing.T) {
	s := testutil.NewCache(t)
	loader := dashboard.NewLoader(&fakeFetcher{}, s, "alice@example.com", zerolog.Nop())

	_, err := loader.Cached(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveSnapshot(context.Background(), "alice@example.com", testutil.SampleSnapshot(time.Now())))
	snap, err := loader.Cached(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Stale)
}
