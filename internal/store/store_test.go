package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/store"
	"github.com/nhle/financeai/tests/testutil"
)

func TestMigrations(t *testing.T) {
	s := testutil.NewCache(t)

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestLatestSnapshot_NotFound(t *testing.T) {
	s := testutil.NewCache(t)

	_, err := s.LatestSnapshot(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testutil.NewCache(t)
	ctx := context.Background()
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := testutil.SampleSnapshot(fetched)

	require.NoError(t, s.SaveSnapshot(ctx, "alice@example.com", want))

	got, err := s.LatestSnapshot(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.True(t, got.FetchedAt.Equal(fetched))
	assert.True(t, want.Stats.TotalBalance.Equal(got.Stats.TotalBalance))
	assert.True(t, want.Stats.SavingsRate.Equal(got.Stats.SavingsRate))

	require.Len(t, got.Spending.Data, 2)
	assert.Equal(t, model.CategoryFood, got.Spending.Data[0].Name)
	assert.True(t, want.Spending.Total.Equal(got.Spending.Total))

	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "Salary Deposit", got.Transactions[0].Title)
	assert.Equal(t, "Chase", got.Transactions[0].Bank)
	assert.True(t, got.Transactions[1].Amount.IsNegative())
	assert.Equal(t, model.TransactionExpense, got.Transactions[1].Type)

	require.Len(t, got.Goals, 2)
	require.NotNil(t, got.Goals[0].Deadline)
	assert.True(t, want.Goals[0].Deadline.Equal(*got.Goals[0].Deadline))
	assert.Nil(t, got.Goals[1].Deadline)
	assert.InDelta(t, 0.72, got.Goals[1].Progress(), 0.001)
	assert.False(t, got.Stale)
}

func TestLatestSnapshot_NewestWinsPerAccount(t *testing.T) {
	s := testutil.NewCache(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := testutil.SampleSnapshot(base)
	newer := testutil.SampleSnapshot(base.Add(time.Hour))
	newer.Transactions = nil
	other := testutil.SampleSnapshot(base.Add(2 * time.Hour))

	require.NoError(t, s.SaveSnapshot(ctx, "alice@example.com", older))
	require.NoError(t, s.SaveSnapshot(ctx, "alice@example.com", newer))
	require.NoError(t, s.SaveSnapshot(ctx, "bob@example.com", other))

	got, err := s.LatestSnapshot(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, got.FetchedAt.Equal(base.Add(time.Hour)))
	assert.Empty(t, got.Transactions)
}

func TestPruneSnapshots(t *testing.T) {
	s := testutil.NewCache(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	testutil.SaveSnapshots(t, s, "alice@example.com",
		base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(3*time.Hour))
	require.NoError(t, s.PruneSnapshots(ctx, "alice@example.com", 1))

	got, err := s.LatestSnapshot(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, got.FetchedAt.Equal(base.Add(3*time.Hour)))
	assert.Len(t, got.Goals, 2)

	require.NoError(t, s.PruneSnapshots(ctx, "alice@example.com", 0))
	_, err = s.LatestSnapshot(ctx, "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveSnapshot_RequiresAccount(t *testing.T) {
	s := testutil.NewCache(t)
	err := s.SaveSnapshot(context.Background(), "", testutil.SampleSnapshot(time.Now()))
	assert.Error(t, err)
}

func TestMessages(t *testing.T) {
	s := testutil.NewCache(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	turns := []model.ChatMessage{
		{Role: model.RoleUser, Content: "How can I save more?", CreatedAt: base},
		{Role: model.RoleAssistant, Content: "Cook at home.", CreatedAt: base.Add(time.Second)},
		{Role: model.RoleUser, Content: "Am I on track?", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, m := range turns {
		require.NoError(t, s.AppendMessage(ctx, "alice@example.com", m))
	}
	require.NoError(t, s.AppendMessage(ctx, "bob@example.com", model.ChatMessage{Role: model.RoleUser, Content: "hi"}))

	all, err := s.Messages(ctx, "alice@example.com", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "How can I save more?", all[0].Content)
	assert.NotEmpty(t, all[0].ID)

	last, err := s.Messages(ctx, "alice@example.com", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "Cook at home.", last[0].Content)
	assert.Equal(t, "Am I on track?", last[1].Content)

	require.NoError(t, s.ClearMessages(ctx, "alice@example.com"))
	all, err = s.Messages(ctx, "alice@example.com", 0)
	require.NoError(t, err)
	assert.Empty(t, all)

	bob, err := s.Messages(ctx, "bob@example.com", 0)
	require.NoError(t, err)
	assert.Len(t, bob, 1)
}
