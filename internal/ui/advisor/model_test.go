package advisor

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advisorsvc "github.com/nhle/financeai/internal/advisor"
	"github.com/nhle/financeai/internal/keys"
)

type echoBackend struct{}

func (echoBackend) Advice(_ context.Context, query string) (string, error) {
	return "You asked: " + query, nil
}

func newPanel(t *testing.T) Model {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	adv := advisorsvc.New(echoBackend{}, 1, advisorsvc.WithClock(func() time.Time { return now }))
	return New(adv, keys.DefaultKeyMap(), 100, 40)
}

func send(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, text, m.pending)
	assert.Empty(t, m.input.Value())

	m, _ = m.Update(m.ask(text)())
	return m
}

func TestPanel_AskShowsTranscript(t *testing.T) {
	m := newPanel(t)
	assert.Contains(t, m.View(), "AI financial advisor")

	m = send(t, m, "How can I save more?")
	assert.Empty(t, m.pending)
	assert.NoError(t, m.err)

	view := m.View()
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "How can I save more?")
	assert.Contains(t, view, "You asked: How can I save more?")
}

func TestPanel_RateLimitedRestoresInput(t *testing.T) {
	m := newPanel(t)
	m = send(t, m, "first")

	m = send(t, m, "second")
	assert.ErrorIs(t, m.err, advisorsvc.ErrRateLimited)
	assert.Equal(t, "second", m.input.Value())
	assert.Contains(t, m.View(), "asking too quickly")
}

func TestPanel_SuggestionsCycle(t *testing.T) {
	m := newPanel(t)

	tab := tea.KeyMsg{Type: tea.KeyTab}
	m, _ = m.Update(tab)
	assert.Equal(t, advisorsvc.Suggestions[0], m.input.Value())
	m, _ = m.Update(tab)
	assert.Equal(t, advisorsvc.Suggestions[1], m.input.Value())
}

func TestPanel_EscCloses(t *testing.T) {
	m := newPanel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}

func TestPanel_NoAdvisor(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 100, 40)
	m.input.SetValue("hello")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Log in to chat")
}
