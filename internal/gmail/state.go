package gmail

import (
	"strings"
	"time"

	"github.com/nhle/financeai/internal/api"
)

// Credential is a Gmail address and its app password. It lives only in
// controller memory and is never written to disk.
type Credential struct {
	Email       string
	AppPassword string
}

// Complete reports whether both fields are non-empty after trimming.
func (c Credential) Complete() bool {
	return strings.TrimSpace(c.Email) != "" && strings.TrimSpace(c.AppPassword) != ""
}

func (c Credential) request() api.GmailCredentials {
	return api.GmailCredentials{
		Email:       strings.TrimSpace(c.Email),
		AppPassword: c.AppPassword,
	}
}

// SyncResult is the outcome of the most recent successful sync.
type SyncResult struct {
	TotalFound      int
	NewTransactions int
	SyncedAt        time.Time
}

// Status enumerates the connection states.
type Status int

const (
	StatusDisconnected Status = iota
	StatusFormOpen
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusFormOpen:
		return "form_open"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// State is the controller state. It is always one of Disconnected,
// FormOpen, Connecting or Connected.
type State interface {
	Status() Status
	isState()
}

// Disconnected is the initial state.
type Disconnected struct{}

// FormOpen shows the credential form. Draft holds whatever the user
// typed; after a failed connect it is the rejected credential and Err
// is the failure.
type FormOpen struct {
	Draft Credential
	Err   error
}

// Connecting means a connect request is in flight.
type Connecting struct {
	Credential Credential
}

// Connected holds the accepted credential. Syncing is set while a sync
// request is in flight; Result is nil until the first successful sync.
// Err is the last sync failure and is cleared when a new sync starts.
type Connected struct {
	Credential Credential
	Syncing    bool
	Result     *SyncResult
	Err        error
}

func (Disconnected) Status() Status { return StatusDisconnected }
func (FormOpen) Status() Status     { return StatusFormOpen }
func (Connecting) Status() Status   { return StatusConnecting }
func (Connected) Status() Status    { return StatusConnected }

func (Disconnected) isState() {}
func (FormOpen) isState()     {}
func (Connecting) isState()   {}
func (Connected) isState()    {}
