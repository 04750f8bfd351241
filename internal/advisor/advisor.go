// Package advisor is the client side of the AI advisor chat: it sends
// questions to the backend, keeps the transcript and throttles requests.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nhle/financeai/internal/model"
)

var (
	// ErrEmptyQuestion is returned for blank input.
	ErrEmptyQuestion = errors.New("advisor: question is empty")

	// ErrBusy is returned while an earlier question is unanswered.
	ErrBusy = errors.New("advisor: still answering the previous question")

	// ErrRateLimited is returned when questions arrive too quickly.
	ErrRateLimited = errors.New("advisor: too many questions, wait a moment")
)

// Suggestions are the canned prompts offered under the chat input.
var Suggestions = []string{
	"Analyze my spending patterns",
	"How can I save more?",
	"Review my goal progress",
	"Suggest budget adjustments",
}

// Backend answers advisor questions.
type Backend interface {
	Advice(ctx context.Context, query string) (string, error)
}

// HistoryStore persists the transcript between runs.
type HistoryStore interface {
	AppendMessage(ctx context.Context, account string, msg model.ChatMessage) error
	Messages(ctx context.Context, account string, limit int) ([]model.ChatMessage, error)
	ClearMessages(ctx context.Context, account string) error
}

// Advisor sends one question at a time to the backend.
type Advisor struct {
	backend Backend
	limiter *rate.Limiter
	conv    *Conversation
	history HistoryStore
	account string
	logger  zerolog.Logger
	now     func() time.Time

	mu   sync.Mutex
	busy bool
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithHistory persists the transcript for account in h.
func WithHistory(h HistoryStore, account string) Option {
	return func(a *Advisor) {
		a.history = h
		a.account = account
	}
}

// WithLogger sets the advisor logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Advisor) {
		a.logger = l.With().Str("component", "advisor").Logger()
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Advisor) {
		a.now = now
	}
}

// New returns an advisor that sends at most requestsPerMinute questions
// per minute, with a burst of one.
func New(backend Backend, requestsPerMinute int, opts ...Option) *Advisor {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 6
	}
	a := &Advisor{
		backend: backend,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		conv:    NewConversation(defaultMaxMessages),
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load restores the persisted transcript, if any.
func (a *Advisor) Load(ctx context.Context) error {
	if a.history == nil {
		return nil
	}
	msgs, err := a.history.Messages(ctx, a.account, defaultMaxMessages)
	if err != nil {
		return fmt.Errorf("loading advisor history: %w", err)
	}
	a.conv.Replace(msgs)
	return nil
}

// Busy reports whether a question is awaiting its answer.
func (a *Advisor) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// Messages returns the transcript.
func (a *Advisor) Messages() []model.ChatMessage {
	return a.conv.Messages()
}

// Ask sends question and returns the advisor's reply. The question is
// added to the transcript immediately; the reply only on success.
func (a *Advisor) Ask(ctx context.Context, question string) (model.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return model.ChatMessage{}, ErrEmptyQuestion
	}

	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return model.ChatMessage{}, ErrBusy
	}
	if !a.limiter.AllowN(a.now(), 1) {
		a.mu.Unlock()
		return model.ChatMessage{}, ErrRateLimited
	}
	a.busy = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	userMsg := a.message(model.RoleUser, question)
	a.conv.Add(userMsg)
	a.persist(ctx, userMsg)

	a.logger.Debug().Int("length", len(question)).Msg("asking advisor")
	answer, err := a.backend.Advice(ctx, question)
	if err != nil {
		a.logger.Warn().Err(err).Msg("advisor request failed")
		return model.ChatMessage{}, fmt.Errorf("asking advisor: %w", err)
	}

	reply := a.message(model.RoleAssistant, strings.TrimSpace(answer))
	a.conv.Add(reply)
	a.persist(ctx, reply)
	return reply, nil
}

// Reset clears the transcript and its persisted copy.
func (a *Advisor) Reset(ctx context.Context) error {
	a.conv.Reset()
	if a.history == nil {
		return nil
	}
	if err := a.history.ClearMessages(ctx, a.account); err != nil {
		return fmt.Errorf("clearing advisor history: %w", err)
	}
	return nil
}

func (a *Advisor) message(role, content string) model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: a.now(),
	}
}

func (a *Advisor) persist(ctx context.Context, msg model.ChatMessage) {
	if a.history == nil {
		return
	}
	if err := a.history.AppendMessage(ctx, a.account, msg); err != nil {
		a.logger.Warn().Err(err).Msg("saving advisor message")
	}
}
