package gmail

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ConnectedLabel is the headline shown once an account is connected.
func ConnectedLabel(cred Credential) string {
	return "Connected to " + strings.TrimSpace(cred.Email)
}

// NewTransactionsLabel renders the latest sync's delta.
func NewTransactionsLabel(r *SyncResult) string {
	if r == nil {
		return "Not synced yet"
	}
	return fmt.Sprintf("%s this month", humanize.Comma(int64(r.NewTransactions)))
}

// FormatSyncedAt renders when the last sync happened relative to now.
func FormatSyncedAt(r *SyncResult, now time.Time) string {
	if r == nil || r.SyncedAt.IsZero() {
		return "Never"
	}
	if now.Sub(r.SyncedAt) < time.Minute {
		return "Just now"
	}
	return humanize.RelTime(r.SyncedAt, now, "ago", "from now")
}
