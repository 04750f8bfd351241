package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/financeai/internal/api"
	dashsvc "github.com/nhle/financeai/internal/dashboard"
	"github.com/nhle/financeai/internal/keys"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/theme"
)

// LoadedMsg carries the result of a dashboard load.
type LoadedMsg struct {
	Snapshot *model.Snapshot
	Err      error

	loader *dashsvc.Loader
}

// SessionExpiredMsg asks the parent to return to the login screen.
type SessionExpiredMsg struct{}

// Model is the dashboard view: stat cards, spending breakdown, goals and
// recent transactions.
type Model struct {
	loader   *dashsvc.Loader
	keys     *keys.KeyMap
	snap     *model.Snapshot
	err      error
	loading  bool
	spinner  spinner.Model
	viewport viewport.Model
	now      func() time.Time
	width    int
	height   int
}

// New creates the dashboard view. loader may be nil until a session exists.
func New(loader *dashsvc.Loader, k *keys.KeyMap, width, height int) Model {
	return Model{
		loader:   loader,
		keys:     k,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorBlue))),
		viewport: viewport.New(width, max(height, 1)),
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// SetLoader swaps the loader, e.g. after a different user logs in, and
// forgets the previous user's snapshot.
func (m *Model) SetLoader(loader *dashsvc.Loader) {
	m.loader = loader
	m.snap = nil
	m.err = nil
	m.loading = false
	m.refreshViewport()
}

// Refresh starts a load from the backend.
func (m *Model) Refresh() tea.Cmd {
	if m.loader == nil || m.loading {
		return nil
	}
	m.loading = true
	m.refreshViewport()
	loader := m.loader
	return tea.Batch(
		func() tea.Msg {
			snap, err := loader.Load(context.Background())
			return LoadedMsg{Snapshot: snap, Err: err, loader: loader}
		},
		m.spinner.Tick,
	)
}

// Loading reports whether a refresh is in progress.
func (m Model) Loading() bool {
	return m.loading
}

// Stale reports whether the shown data came from the offline cache.
func (m Model) Stale() bool {
	return m.snap != nil && m.snap.Stale
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.loader != nil && msg.loader != m.loader {
			// A previous session's load finished after a logout.
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.refreshViewport()
			if api.IsUnauthorized(msg.Err) {
				return m, func() tea.Msg { return SessionExpiredMsg{} }
			}
			return m, nil
		}
		m.err = nil
		m.snap = msg.Snapshot
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snap == nil {
			m.refreshViewport()
		}
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			cmd := m.Refresh()
			return m, cmd
		case key.Matches(msg, m.keys.Down):
			m.viewport.ScrollDown(1)
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.viewport.ScrollUp(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	return m.viewport.View()
}

// SetSize updates the dashboard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height, 1)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.render())
}

func (m Model) render() string {
	if m.snap == nil {
		switch {
		case m.loading:
			return "\n  " + m.spinner.View() + " Loading dashboard..."
		case m.err != nil:
			return "\n  " + theme.ErrorStyle.Render(errorMessage(m.err)) +
				"\n\n  " + theme.HelpStyle.Render("press r to retry")
		default:
			return "\n  " + theme.HelpStyle.Render("press r to load the dashboard")
		}
	}

	sections := []string{m.renderBanner(), m.renderStats()}

	half := max((m.width-4)/2, 30)
	if m.width >= 100 {
		sections = append(sections, lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.panel("Spending by Category", m.renderSpending(half-8), half),
			m.panel("Goals", m.renderGoals(half-8), half),
		))
	} else {
		sections = append(sections,
			m.panel("Spending by Category", m.renderSpending(m.width-10), m.width-2),
			m.panel("Goals", m.renderGoals(m.width-10), m.width-2),
		)
	}
	sections = append(sections, m.panel("Recent Transactions", m.renderTransactions(), m.width-2))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderBanner() string {
	var parts []string
	if m.Stale() {
		parts = append(parts, theme.StaleStyle.Render(
			"Offline: showing data from "+humanize.RelTime(m.snap.FetchedAt, m.now(), "ago", "from now"),
		))
	}
	if m.err != nil {
		parts = append(parts, theme.ErrorStyle.Render(errorMessage(m.err)))
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" Refreshing...")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, "  ")
}

func (m Model) renderStats() string {
	s := m.snap.Stats
	cards := []struct {
		label string
		value string
		color lipgloss.AdaptiveColor
	}{
		{"Total Balance", model.Money(s.TotalBalance), theme.ColorWhite},
		{"Monthly Income", model.Money(s.MonthlyIncome), theme.ColorGreen},
		{"Monthly Expenses", model.Money(s.MonthlyExpenses), theme.ColorRed},
		{"Savings Rate", model.Percent(s.SavingsRate), theme.ColorBlue},
	}

	width := max(m.width/len(cards)-2, 16)
	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		body := lipgloss.JoinVertical(lipgloss.Left,
			theme.MutedStyle.Render(c.label),
			lipgloss.NewStyle().Bold(true).Foreground(c.color).Render(c.value),
		)
		rendered = append(rendered, theme.CardStyle.Width(width).Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) panel(title, body string, width int) string {
	return theme.CardStyle.
		Width(max(width-2, 10)).
		Padding(0, 1).
		Render(theme.TitleStyle.Render(title) + "\n" + body)
}

func (m Model) renderSpending(width int) string {
	spending := m.snap.Spending
	if len(spending.Data) == 0 {
		return theme.MutedStyle.Render("No spending this month")
	}

	nameWidth := 0
	for _, c := range spending.Data {
		nameWidth = max(nameWidth, lipgloss.Width(c.Name))
	}
	barWidth := max(width-nameWidth-16, 5)

	lines := make([]string, 0, len(spending.Data)+2)
	for i, c := range spending.Data {
		share := spending.Share(c)
		bar := lipgloss.NewStyle().
			Foreground(theme.ChartColor(i)).
			Render(strings.Repeat("█", int(share*float64(barWidth)+0.5)))
		lines = append(lines, fmt.Sprintf("%-*s %s %s %s",
			nameWidth, c.Name,
			lipgloss.NewStyle().Width(barWidth).Render(bar),
			lipgloss.NewStyle().Width(7).Align(lipgloss.Right).Render(model.WholeMoney(c.Value)),
			theme.MutedStyle.Render(fmt.Sprintf("%3.0f%%", share*100)),
		))
	}
	lines = append(lines, "", theme.MutedStyle.Render("Total ")+model.Money(spending.Total))
	return strings.Join(lines, "\n")
}

func (m Model) renderGoals(width int) string {
	if len(m.snap.Goals) == 0 {
		return theme.MutedStyle.Render("No goals yet")
	}

	lines := make([]string, 0, len(m.snap.Goals)*3)
	for _, g := range m.snap.Goals {
		bar := progress.New(
			progress.WithSolidFill(theme.GoalColor(g.Color).Dark),
			progress.WithWidth(max(width, 10)),
		)
		amounts := fmt.Sprintf("%s of %s", model.WholeMoney(g.Current), model.WholeMoney(g.Target))
		if g.Deadline != nil {
			amounts += " · by " + g.Deadline.Format("Jan 2006")
		}
		lines = append(lines,
			lipgloss.NewStyle().Bold(true).Render(g.Title),
			bar.ViewAs(g.Progress()),
			theme.MutedStyle.Render(amounts),
		)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTransactions() string {
	if len(m.snap.Transactions) == 0 {
		return theme.MutedStyle.Render("No transactions yet. Connect Gmail to import them.")
	}

	lines := make([]string, 0, len(m.snap.Transactions))
	for _, t := range m.snap.Transactions {
		meta := t.Category
		if t.Bank != "" {
			meta += " · " + t.Bank
		}
		amount := model.Money(t.Amount)
		if t.IsIncome() && t.Amount.Sign() > 0 {
			amount = "+" + amount
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s",
			theme.MutedStyle.Width(6).Render(t.Date.Format("Jan 2")),
			lipgloss.NewStyle().Width(22).Render(t.Title),
			theme.MutedStyle.Width(30).Render(meta),
			theme.AmountStyle(t.IsIncome()).Render(amount),
		))
	}
	return strings.Join(lines, "\n")
}

// errorMessage maps a load failure to what the dashboard shows.
func errorMessage(err error) string {
	switch {
	case api.IsUnauthorized(err):
		return "Session expired, please log in again"
	case api.IsTransport(err):
		return "Failed to connect to server"
	}
	if detail, ok := api.Detail(err); ok {
		return detail
	}
	return "Failed to load dashboard"
}
