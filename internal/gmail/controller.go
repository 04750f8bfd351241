// Package gmail implements the Gmail connect/sync flow: a small state
// machine around the backend's connect and sync endpoints.
package gmail

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/financeai/internal/api"
)

// Backend is the subset of the API client the controller calls.
type Backend interface {
	ConnectGmail(ctx context.Context, creds api.GmailCredentials) error
	SyncGmail(ctx context.Context, creds api.GmailCredentials) (*api.SyncResponse, error)
}

// Controller owns the connection and sync lifecycle of one Gmail
// account. It is safe for concurrent use; requests run outside the lock.
type Controller struct {
	backend Backend
	logger  zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	state  State
	gen    uint64
	closed bool
	tasks  *taskSet
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l.With().Str("component", "gmail").Logger()
	}
}

// WithClock replaces time.Now for SyncResult timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController returns a controller in the Disconnected state. The
// backend carries the bearer token source.
func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		logger:  zerolog.Nop(),
		now:     time.Now,
		state:   Disconnected{},
		tasks:   newTaskSet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OpenForm moves Disconnected to FormOpen with an empty draft. It is a
// no-op in any other state.
func (c *Controller) OpenForm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(Disconnected); ok && !c.closed {
		c.state = FormOpen{}
	}
}

// CancelForm moves FormOpen back to Disconnected, dropping the draft.
// It is a no-op in any other state.
func (c *Controller) CancelForm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(FormOpen); ok {
		c.state = Disconnected{}
	}
}

// Connect submits cred to the backend. It is accepted from Disconnected
// or FormOpen. On success the state becomes Connected; on failure it
// returns to FormOpen with cred kept as the draft.
func (c *Controller) Connect(ctx context.Context, cred Credential) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	switch s := c.state.(type) {
	case Connecting:
		c.mu.Unlock()
		return ErrInFlight
	case Connected:
		c.mu.Unlock()
		return ErrAlreadyConnected
	case FormOpen:
		if !cred.Complete() {
			s.Draft = cred
			s.Err = ErrMissingCredential
			c.state = s
			c.mu.Unlock()
			return ErrMissingCredential
		}
	default:
		if !cred.Complete() {
			c.mu.Unlock()
			return ErrMissingCredential
		}
	}

	key := taskKey{account: cred.request().Email, op: OpConnect}
	taskCtx, id, ok := c.tasks.start(ctx, key)
	if !ok {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.gen++
	gen := c.gen
	c.state = Connecting{Credential: cred}
	c.mu.Unlock()

	c.logger.Info().Str("account", key.account).Msg("connecting gmail")
	err := c.backend.ConnectGmail(taskCtx, cred.request())
	c.tasks.finish(key, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug().Stringer("task", key).Msg("discarding stale connect response")
		return ErrDiscarded
	}

	if err != nil {
		c.logger.Warn().Err(err).Str("account", key.account).Msg("gmail connect failed")
		opErr := &OpError{Op: OpConnect, Err: err}
		c.state = FormOpen{Draft: cred, Err: opErr}
		return opErr
	}

	c.logger.Info().Str("account", key.account).Msg("gmail connected")
	c.state = Connected{Credential: cred}
	return nil
}

// Sync asks the backend to import transactions for the connected
// account. The result replaces any earlier one; a failure leaves it
// untouched.
func (c *Controller) Sync(ctx context.Context) (SyncResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SyncResult{}, ErrClosed
	}

	conn, ok := c.state.(Connected)
	if !ok {
		c.mu.Unlock()
		return SyncResult{}, ErrNotConnected
	}
	if conn.Syncing {
		c.mu.Unlock()
		return SyncResult{}, ErrInFlight
	}

	req := conn.Credential.request()
	key := taskKey{account: req.Email, op: OpSync}
	taskCtx, id, ok := c.tasks.start(ctx, key)
	if !ok {
		c.mu.Unlock()
		return SyncResult{}, ErrInFlight
	}
	conn.Syncing = true
	conn.Err = nil
	c.state = conn
	gen := c.gen
	c.mu.Unlock()

	c.logger.Info().Str("account", key.account).Msg("syncing gmail")
	resp, err := c.backend.SyncGmail(taskCtx, req)
	c.tasks.finish(key, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug().Stringer("task", key).Msg("discarding stale sync response")
		return SyncResult{}, ErrDiscarded
	}

	conn, _ = c.state.(Connected)
	conn.Syncing = false

	if err != nil {
		c.logger.Warn().Err(err).Str("account", key.account).Msg("gmail sync failed")
		opErr := &OpError{Op: OpSync, Err: err}
		conn.Err = opErr
		c.state = conn
		return SyncResult{}, opErr
	}

	result := SyncResult{
		TotalFound:      resp.TotalFound,
		NewTransactions: resp.NewTransactions,
		SyncedAt:        c.now(),
	}
	conn.Result = &result
	c.state = conn

	c.logger.Info().
		Str("account", key.account).
		Int("total_found", result.TotalFound).
		Int("new_transactions", result.NewTransactions).
		Msg("gmail synced")
	return result, nil
}

// Disconnect forgets the credential and sync result and reopens an
// empty form. An in-flight sync is cancelled and its response dropped.
// The backend is not notified. It is a no-op unless Connected.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.state.(Connected)
	if !ok {
		return
	}

	if conn.Syncing {
		c.tasks.cancel(taskKey{account: conn.Credential.request().Email, op: OpSync})
	}
	c.gen++
	c.state = FormOpen{}
	c.logger.Info().Msg("gmail disconnected")
}

// Close cancels every in-flight request and rejects further operations.
// Responses that arrive afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.tasks.cancelAll()
}
