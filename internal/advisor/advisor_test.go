package advisor_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/financeai/internal/advisor"
	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/tests/testutil"
)

type fakeBackend struct {
	answer  string
	err     error
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
}

func (f *fakeBackend) Advice(ctx context.Context, query string) (string, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestAsk(t *testing.T) {
	backend := &fakeBackend{answer: " Cook at home more often. "}
	a := advisor.New(backend, 6)

	reply, err := a.Ask(context.Background(), "How can I save more?")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "Cook at home more often.", reply.Content)

	msgs := a.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "How can I save more?", msgs[0].Content)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	backend := &fakeBackend{}
	a := advisor.New(backend, 6)

	_, err := a.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, advisor.ErrEmptyQuestion)
	assert.Zero(t, backend.calls.Load())
}

func TestAsk_RateLimited(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	backend := &fakeBackend{answer: "ok"}
	a := advisor.New(backend, 6, advisor.WithClock(c.now))

	_, err := a.Ask(context.Background(), "first")
	require.NoError(t, err)

	c.t = c.t.Add(time.Second)
	_, err = a.Ask(context.Background(), "second")
	assert.ErrorIs(t, err, advisor.ErrRateLimited)

	c.t = c.t.Add(10 * time.Second)
	_, err = a.Ask(context.Background(), "third")
	require.NoError(t, err)
	assert.Equal(t, int32(2), backend.calls.Load())
}

func TestAsk_OneAtATime(t *testing.T) {
	backend := &fakeBackend{answer: "ok", release: make(chan struct{}), started: make(chan struct{}, 1)}
	a := advisor.New(backend, 600)

	done := make(chan error, 1)
	go func() {
		_, err := a.Ask(context.Background(), "first")
		done <- err
	}()
	<-backend.started

	assert.True(t, a.Busy())
	_, err := a.Ask(context.Background(), "second")
	assert.ErrorIs(t, err, advisor.ErrBusy)

	close(backend.release)
	require.NoError(t, <-done)
	assert.False(t, a.Busy())
}

func TestAsk_BackendError(t *testing.T) {
	backend := &fakeBackend{err: &api.ServerError{StatusCode: http.StatusServiceUnavailable, Detail: "AI service unavailable"}}
	a := advisor.New(backend, 6)

	_, err := a.Ask(context.Background(), "Review my goal progress")
	require.Error(t, err)
	detail, ok := api.Detail(err)
	assert.True(t, ok)
	assert.Equal(t, "AI service unavailable", detail)

	msgs := a.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.False(t, a.Busy())
}

func TestHistoryPersisted(t *testing.T) {
	s := testutil.NewCache(t)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	a := advisor.New(&fakeBackend{answer: "Spend less."}, 6,
		advisor.WithHistory(s, "alice@example.com"), advisor.WithClock(c.now))
	_, err := a.Ask(context.Background(), "Suggest budget adjustments")
	require.NoError(t, err)

	restored := advisor.New(&fakeBackend{}, 6, advisor.WithHistory(s, "alice@example.com"))
	require.NoError(t, restored.Load(context.Background()))
	msgs := restored.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Spend less.", msgs[1].Content)

	require.NoError(t, restored.Reset(context.Background()))
	assert.Empty(t, restored.Messages())

	again := advisor.New(&fakeBackend{}, 6, advisor.WithHistory(s, "alice@example.com"))
	require.NoError(t, again.Load(context.Background()))
	assert.Empty(t, again.Messages())
}

func TestConversation_Trims(t *testing.T) {
	conv := advisor.NewConversation(3)
	for i := 0; i < 5; i++ {
		conv.Add(model.ChatMessage{Content: string(rune('a' + i))})
	}

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "c", msgs[0].Content)
	assert.Equal(t, "e", msgs[2].Content)

	conv.Reset()
	assert.Zero(t, conv.Len())
}

func TestSuggestions(t *testing.T) {
	assert.Len(t, advisor.Suggestions, 4)
	assert.Contains(t, advisor.Suggestions, "How can I save more?")
}

