package gmail

import (
	"errors"
	"fmt"

	"github.com/nhle/financeai/internal/api"
)

var (
	// ErrMissingCredential is returned by Connect when the email or app
	// password is empty. No request is sent.
	ErrMissingCredential = errors.New("gmail: email and app password are required")

	// ErrNotConnected is returned by Sync outside the Connected state.
	// No request is sent.
	ErrNotConnected = errors.New("gmail: not connected")

	// ErrAlreadyConnected is returned by Connect while Connected.
	ErrAlreadyConnected = errors.New("gmail: already connected")

	// ErrInFlight is returned when the same operation is already running.
	// The call has no effect.
	ErrInFlight = errors.New("gmail: operation already in progress")

	// ErrDiscarded is returned when a response arrives after Disconnect
	// or Close made it stale. State was not touched.
	ErrDiscarded = errors.New("gmail: response discarded")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("gmail: controller closed")
)

// Operation names carried by OpError.
const (
	OpConnect = "connect"
	OpSync    = "sync"
)

// OpError wraps a failed connect or sync request.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("gmail %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// User-visible messages.
const (
	msgMissingCredential = "Please enter your Gmail address and app password"
	msgNotConnected      = "Gmail is not connected, please reconnect"
	msgInFlight          = "Already in progress"
	msgTransport         = "Failed to connect to server"
	msgConnectFailed     = "Failed to connect Gmail"
	msgSyncFailed        = "Sync failed"
	msgUnknown           = "Something went wrong"
)

// Message turns an error returned by the controller into the text shown
// to the user. The backend's detail message wins when present. It
// returns "" for nil and for discarded responses.
func Message(err error) string {
	switch {
	case err == nil, errors.Is(err, ErrDiscarded):
		return ""
	case errors.Is(err, ErrMissingCredential):
		return msgMissingCredential
	case errors.Is(err, ErrNotConnected), errors.Is(err, ErrClosed):
		return msgNotConnected
	case errors.Is(err, ErrInFlight):
		return msgInFlight
	}

	if detail, ok := api.Detail(err); ok {
		return detail
	}
	if api.IsTransport(err) {
		return msgTransport
	}

	var opErr *OpError
	if errors.As(err, &opErr) {
		if opErr.Op == OpSync {
			return msgSyncFailed
		}
		return msgConnectFailed
	}
	return msgUnknown
}
