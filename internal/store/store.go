package store

import (
	"context"
	"errors"

	"github.com/nhle/financeai/internal/model"
)

// ErrNotFound is returned when no cached row exists.
var ErrNotFound = errors.New("store: not found")

// Store caches what the backend last returned so the dashboard can be
// shown offline. Every method is scoped to one account (the logged-in
// user's email).
type Store interface {
	// === Dashboard snapshots ===

	SaveSnapshot(ctx context.Context, account string, snap model.Snapshot) error
	LatestSnapshot(ctx context.Context, account string) (*model.Snapshot, error)
	PruneSnapshots(ctx context.Context, account string, keep int) error

	// === Advisor history ===

	AppendMessage(ctx context.Context, account string, msg model.ChatMessage) error
	Messages(ctx context.Context, account string, limit int) ([]model.ChatMessage, error)
	ClearMessages(ctx context.Context, account string) error

	Close() error
}
