package gmail_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/gmail"
)

func TestFormatSyncedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Never", gmail.FormatSyncedAt(nil, now))
	assert.Equal(t, "Just now", gmail.FormatSyncedAt(&gmail.SyncResult{SyncedAt: now}, now))
	assert.Equal(t, "Just now", gmail.FormatSyncedAt(&gmail.SyncResult{SyncedAt: now.Add(-59 * time.Second)}, now))
	assert.Equal(t, "2 hours ago", gmail.FormatSyncedAt(&gmail.SyncResult{SyncedAt: now.Add(-2 * time.Hour)}, now))
}

func TestNewTransactionsLabel(t *testing.T) {
	assert.Equal(t, "Not synced yet", gmail.NewTransactionsLabel(nil))
	assert.Equal(t, "0 this month", gmail.NewTransactionsLabel(&gmail.SyncResult{}))
	assert.Equal(t, "1,204 this month", gmail.NewTransactionsLabel(&gmail.SyncResult{NewTransactions: 1204}))
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"discarded", gmail.ErrDiscarded, ""},
		{"missing", gmail.ErrMissingCredential, "Please enter your Gmail address and app password"},
		{"in flight", gmail.ErrInFlight, "Already in progress"},
		{"detail", &gmail.OpError{Op: gmail.OpSync, Err: &api.ServerError{StatusCode: 400, Detail: "Mailbox locked"}}, "Mailbox locked"},
		{"connect fallback", &gmail.OpError{Op: gmail.OpConnect, Err: &api.ServerError{StatusCode: http.StatusBadGateway}}, "Failed to connect Gmail"},
		{"sync fallback", &gmail.OpError{Op: gmail.OpSync, Err: &api.ServerError{StatusCode: http.StatusBadGateway}}, "Sync failed"},
		{"transport", &gmail.OpError{Op: gmail.OpConnect, Err: &api.TransportError{Err: errors.New("refused")}}, "Failed to connect to server"},
		{"unknown", errors.New("boom"), "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gmail.Message(tt.err))
		})
	}
}
