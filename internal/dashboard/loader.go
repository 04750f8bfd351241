// Package dashboard fetches everything the dashboard screen shows and
// falls back to the local cache when the backend cannot be reached.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/store"
)

// Panel names, used in logs and PanelError.
const (
	PanelStats        = "stats"
	PanelSpending     = "spending"
	PanelTransactions = "transactions"
	PanelGoals        = "goals"
)

// keepSnapshots is how many snapshots per account survive a save.
const keepSnapshots = 5

// Fetcher is the part of the API client the loader uses.
type Fetcher interface {
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
	SpendingAnalytics(ctx context.Context) (*model.SpendingAnalytics, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Goals(ctx context.Context) ([]model.Goal, error)
}

// Cache persists snapshots between runs.
type Cache interface {
	SaveSnapshot(ctx context.Context, account string, snap model.Snapshot) error
	LatestSnapshot(ctx context.Context, account string) (*model.Snapshot, error)
	PruneSnapshots(ctx context.Context, account string, keep int) error
}

// PanelError reports which panels failed to refresh.
type PanelError struct {
	Errs map[string]error
}

func (e *PanelError) Error() string {
	return fmt.Sprintf("refreshing dashboard: %d panel(s) failed", len(e.Errs))
}

// Unwrap exposes every panel failure to errors.Is/As.
func (e *PanelError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errs))
	for _, err := range e.Errs {
		errs = append(errs, err)
	}
	return errs
}

// Loader fetches the four dashboard panels concurrently.
type Loader struct {
	fetcher Fetcher
	cache   Cache
	account string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLoader returns a loader for account. cache may be nil.
func NewLoader(fetcher Fetcher, cache Cache, account string, logger zerolog.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		account: account,
		logger:  logger.With().Str("component", "dashboard").Logger(),
		now:     time.Now,
	}
}

// Load fetches all panels. When every panel succeeds the snapshot is
// cached and returned. When some fail, the failed panels are filled from
// the last cached snapshot and the result is marked Stale; the returned
// error is then nil. An expired session is never masked by the cache.
func (l *Loader) Load(ctx context.Context) (*model.Snapshot, error) {
	var (
		snap model.Snapshot
		mu   sync.Mutex
		errs = make(map[string]error)
	)

	record := func(panel string, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs[panel] = err
		l.logger.Warn().Err(err).Str("panel", panel).Msg("panel refresh failed")
	}

	var g errgroup.Group
	g.Go(func() error {
		stats, err := l.fetcher.DashboardStats(ctx)
		if err != nil {
			record(PanelStats, err)
			return nil
		}
		snap.Stats = *stats
		return nil
	})
	g.Go(func() error {
		spending, err := l.fetcher.SpendingAnalytics(ctx)
		if err != nil {
			record(PanelSpending, err)
			return nil
		}
		snap.Spending = *spending
		return nil
	})
	g.Go(func() error {
		txs, err := l.fetcher.Transactions(ctx)
		if err != nil {
			record(PanelTransactions, err)
			return nil
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		goals, err := l.fetcher.Goals(ctx)
		if err != nil {
			record(PanelGoals, err)
			return nil
		}
		snap.Goals = goals
		return nil
	})
	_ = g.Wait()

	snap.FetchedAt = l.now()

	if len(errs) == 0 {
		l.save(ctx, snap)
		return &snap, nil
	}

	panelErr := &PanelError{Errs: errs}
	for _, err := range errs {
		if api.IsUnauthorized(err) {
			return nil, panelErr
		}
	}

	cached := l.cached(ctx)
	if cached == nil {
		if len(errs) == 4 {
			return nil, panelErr
		}
		snap.Stale = true
		return &snap, nil
	}

	if _, failed := errs[PanelStats]; failed {
		snap.Stats = cached.Stats
	}
	if _, failed := errs[PanelSpending]; failed {
		snap.Spending = cached.Spending
	}
	if _, failed := errs[PanelTransactions]; failed {
		snap.Transactions = cached.Transactions
	}
	if _, failed := errs[PanelGoals]; failed {
		snap.Goals = cached.Goals
	}
	if len(errs) == 4 {
		snap.FetchedAt = cached.FetchedAt
	}
	snap.ID = cached.ID
	snap.Stale = true

	return &snap, nil
}

// Cached returns the last cached snapshot, marked stale, without
// contacting the backend.
func (l *Loader) Cached(ctx context.Context) (*model.Snapshot, error) {
	snap := l.cached(ctx)
	if snap == nil {
		return nil, store.ErrNotFound
	}
	return snap, nil
}

func (l *Loader) cached(ctx context.Context) *model.Snapshot {
	if l.cache == nil || l.account == "" {
		return nil
	}
	snap, err := l.cache.LatestSnapshot(ctx, l.account)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.logger.Warn().Err(err).Msg("reading snapshot cache")
		}
		return nil
	}
	snap.Stale = true
	return snap
}

func (l *Loader) save(ctx context.Context, snap model.Snapshot) {
	if l.cache == nil || l.account == "" {
		return
	}
	if err := l.cache.SaveSnapshot(ctx, l.account, snap); err != nil {
		l.logger.Warn().Err(err).Msg("writing snapshot cache")
		return
	}
	if err := l.cache.PruneSnapshots(ctx, l.account, keepSnapshots); err != nil {
		l.logger.Warn().Err(err).Msg("pruning snapshot cache")
	}
}
