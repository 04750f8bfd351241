package advisor

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	advisorsvc "github.com/nhle/financeai/internal/advisor"
	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/keys"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/theme"
)

// CloseMsg signals the parent to leave the advisor panel.
type CloseMsg struct{}

type answeredMsg struct{ err error }

type historyLoadedMsg struct{ err error }

// Model is the advisor chat panel.
type Model struct {
	advisor    *advisorsvc.Advisor
	input      textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	keys       *keys.KeyMap
	suggestion int
	err        error

	// pending is the question in flight, restored to the input if the
	// advisor refused it.
	pending string
	width      int
	height     int
}

// New creates the advisor panel. adv may be nil until a session exists.
func New(adv *advisorsvc.Advisor, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your spending, savings or goals..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(2)
	ta.CharLimit = 1000
	ta.Focus()

	vp := viewport.New(width-4, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	m := Model{
		advisor:    adv,
		input:      ta,
		viewport:   vp,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorGray))),
		keys:       k,
		suggestion: -1,
		width:      width,
		height:     height,
	}
	m.refreshViewport()
	return m
}

// viewportHeight leaves room for the title, input, suggestions and borders.
func viewportHeight(height int) int {
	return max(height-12, 4)
}

// SetAdvisor swaps the advisor after a login and loads its history.
func (m *Model) SetAdvisor(adv *advisorsvc.Advisor) tea.Cmd {
	m.advisor = adv
	m.err = nil
	m.pending = ""
	m.refreshViewport()
	if adv == nil {
		return nil
	}
	return func() tea.Msg {
		return historyLoadedMsg{err: adv.Load(context.Background())}
	}
}

// Update handles messages for the advisor panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case answeredMsg:
		m.err = msg.err
		if errors.Is(msg.err, advisorsvc.ErrRateLimited) || errors.Is(msg.err, advisorsvc.ErrBusy) {
			m.input.SetValue(m.pending)
		}
		m.pending = ""
		m.refreshViewport()
		return m, nil

	case historyLoadedMsg:
		m.err = msg.err
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.pending == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	cmds = append(cmds, taCmd)

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Suggestion):
		// Cycle canned questions into the input.
		m.suggestion = (m.suggestion + 1) % len(advisorsvc.Suggestions)
		m.input.SetValue(advisorsvc.Suggestions[m.suggestion])
		return m, nil

	case key.Matches(msg, m.keys.ClearChat):
		if m.advisor == nil || m.advisor.Busy() {
			return m, nil
		}
		m.err = m.advisor.Reset(context.Background())
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		if m.advisor == nil {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if m.pending != "" {
			m.err = advisorsvc.ErrBusy
			m.refreshViewport()
			return m, nil
		}

		m.input.Reset()
		m.suggestion = -1
		m.err = nil
		m.pending = text
		return m, tea.Batch(m.ask(text), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask sends text in the background. The advisor records the question
// immediately, so the transcript shows it while the answer is pending.
func (m Model) ask(text string) tea.Cmd {
	adv := m.advisor
	return func() tea.Msg {
		_, err := adv.Ask(context.Background(), text)
		return answeredMsg{err: err}
	}
}

// refreshViewport re-renders the conversation content and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	if m.advisor == nil {
		return theme.HelpStyle.Render("Log in to chat with the advisor.")
	}

	msgs := m.advisor.Messages()
	if len(msgs) == 0 && m.err == nil && m.pending == "" {
		return theme.HelpStyle.Render(
			"Hi! I'm your AI financial advisor. Ask me anything about your " +
				"spending, savings or goals.",
		)
	}

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	assistantStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite).Width(max(m.width-8, 20))

	var sections []string
	for _, msg := range msgs {
		label := assistantStyle.Render("Advisor:")
		if msg.Role == model.RoleUser {
			label = userStyle.Render("You:")
		}
		sections = append(sections, label, contentStyle.Render(msg.Content), "")
	}

	if m.pending != "" {
		sections = append(sections, m.spinner.View()+theme.HelpStyle.Render(" thinking..."))
	}
	if m.err != nil {
		sections = append(sections, theme.ErrorStyle.Render(errorMessage(m.err)))
	}

	return strings.Join(sections, "\n")
}

// View renders the advisor panel.
func (m Model) View() string {
	title := theme.TitleStyle.Render("AI Financial Advisor")

	separator := lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(
		strings.Repeat("─", max(min(m.width-6, 80), 0)),
	)

	chips := make([]string, 0, len(advisorsvc.Suggestions))
	for i, s := range advisorsvc.Suggestions {
		style := theme.MutedStyle
		if i == m.suggestion {
			style = lipgloss.NewStyle().Foreground(theme.ColorBlue)
		}
		chips = append(chips, style.Render(s))
	}
	suggestions := theme.HelpStyle.Render("tab: ") + strings.Join(chips, theme.MutedStyle.Render(" · "))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		separator,
		m.input.View(),
		suggestions,
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
	m.viewport.Width = width - 4
	m.viewport.Height = viewportHeight(height)
	m.refreshViewport()
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Clear resets the conversation, used by the command palette.
func (m *Model) Clear() {
	if m.advisor == nil || m.advisor.Busy() {
		return
	}
	m.err = m.advisor.Reset(context.Background())
	m.refreshViewport()
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, advisorsvc.ErrRateLimited):
		return "You're asking too quickly, wait a moment and try again."
	case errors.Is(err, advisorsvc.ErrBusy):
		return "Still answering your previous question."
	case api.IsTransport(err):
		return "Failed to connect to server"
	}
	if detail, ok := api.Detail(err); ok {
		return detail
	}
	return "Sorry, I couldn't answer that. Please try again."
}
