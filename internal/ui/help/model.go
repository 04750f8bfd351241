package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/financeai/internal/buildinfo"
	"github.com/nhle/financeai/internal/keys"
	"github.com/nhle/financeai/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	backend string
	width   int
	height  int
}

// New creates a new help view model. backend is the API root shown in
// the footer.
func New(keys *keys.KeyMap, backend string, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:    keys,
		help:    h,
		backend: backend,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	footer := theme.MutedStyle.Render(fmt.Sprintf(
		"financeai %s · backend %s", buildinfo.Version, m.backend,
	))

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, "", footer)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
