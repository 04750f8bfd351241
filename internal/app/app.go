package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	advisorsvc "github.com/nhle/financeai/internal/advisor"
	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/credential"
	dashsvc "github.com/nhle/financeai/internal/dashboard"
	gmailsvc "github.com/nhle/financeai/internal/gmail"
	"github.com/nhle/financeai/internal/keys"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/store"
	"github.com/nhle/financeai/internal/ui"
	advisorview "github.com/nhle/financeai/internal/ui/advisor"
	"github.com/nhle/financeai/internal/ui/command"
	dashview "github.com/nhle/financeai/internal/ui/dashboard"
	gmailview "github.com/nhle/financeai/internal/ui/gmail"
	helpview "github.com/nhle/financeai/internal/ui/help"
	"github.com/nhle/financeai/internal/ui/login"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewGmail
	ViewAdvisor
	ViewHelp
	ViewCommand
)

// tabs lists the views reachable from the header, in tab order.
var tabs = []struct {
	view  ViewState
	label string
}{
	{ViewDashboard, "1 Dashboard"},
	{ViewGmail, "2 Gmail"},
	{ViewAdvisor, "3 Advisor"},
}

// Deps are the services the TUI runs on.
type Deps struct {
	Config      *model.AppConfig
	Client      *api.Client
	Credentials *credential.Store

	// Cache may be nil, in which case nothing is kept between runs.
	Cache  store.Store
	Logger zerolog.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout and the logged-in session.
type Model struct {
	deps          Deps
	currentView   ViewState
	previousView  ViewState
	layout        ui.Layout
	keys          *keys.KeyMap
	user          *model.User
	gmail         *gmailsvc.Controller
	loginView     login.Model
	dashboardView dashview.Model
	gmailView     gmailview.Model
	advisorView   advisorview.Model
	helpView      helpview.Model
	commandView   command.Model
	initCmds      []tea.Cmd
	ready         bool

	// statusMessage replaces the key hints until the next key press.
	statusMessage string
}

// New creates the root model. If a session is stored the dashboard opens
// directly, otherwise the login screen.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()

	m := Model{
		deps:          d,
		keys:          k,
		layout:        ui.NewLayout(80, 24),
		loginView:     login.New(d.Client, d.Credentials, 80, 24),
		dashboardView: dashview.New(nil, k, 80, 22),
		advisorView:   advisorview.New(nil, k, 80, 22),
		helpView:      helpview.New(k, d.Client.BaseURL(), 80, 22),
		commandView:   command.New(80, 22),
	}

	user, err := d.Credentials.User()
	if err != nil {
		d.Logger.Debug().Err(err).Msg("no stored session")
		m.closeGmail()
		m.currentView = ViewLogin
		m.initCmds = append(m.initCmds, m.loginView.Start(""))
		return m
	}

	m.initCmds = append(m.initCmds, m.startSession(*user))
	return m
}

// Init returns the commands prepared by New.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmds...)
}

// Close cancels outstanding Gmail requests. It is safe to call more than once.
func (m Model) Close() {
	if m.gmail != nil {
		m.gmail.Close()
	}
}

// startSession wires per-user services and opens the dashboard.
func (m *Model) startSession(user model.User) tea.Cmd {
	d := m.deps
	m.user = &user
	d.Logger.Info().Str("user", user.Email).Msg("session started")

	// Gmail credentials never outlive the session they were entered in.
	m.closeGmail()

	m.dashboardView.SetLoader(dashsvc.NewLoader(d.Client, d.Cache, user.Email, d.Logger))

	opts := []advisorsvc.Option{advisorsvc.WithLogger(d.Logger)}
	if d.Cache != nil {
		opts = append(opts, advisorsvc.WithHistory(d.Cache, user.Email))
	}
	adv := advisorsvc.New(d.Client, d.Config.Advisor.RequestsPerMinute, opts...)

	m.currentView = ViewDashboard
	m.previousView = ViewDashboard
	return tea.Batch(
		m.dashboardView.Refresh(),
		m.advisorView.SetAdvisor(adv),
	)
}

// endSession forgets the stored session and returns to the login screen.
func (m *Model) endSession(notice string) tea.Cmd {
	if err := m.deps.Credentials.ClearSession(); err != nil {
		m.deps.Logger.Warn().Err(err).Msg("clearing session")
	}
	if m.user != nil {
		m.deps.Logger.Info().Str("user", m.user.Email).Msg("session ended")
	}

	m.user = nil
	m.closeGmail()
	m.dashboardView.SetLoader(nil)
	m.advisorView.SetAdvisor(nil)
	m.currentView = ViewLogin
	return m.loginView.Start(notice)
}

// closeGmail drops the current controller, cancelling its requests, and
// installs a fresh disconnected one.
func (m *Model) closeGmail() {
	if m.gmail != nil {
		m.gmail.Close()
	}
	m.gmail = gmailsvc.NewController(m.deps.Client, gmailsvc.WithLogger(m.deps.Logger))
	m.gmailView = gmailview.New(m.gmail, m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.dashboardView.SetSize(contentWidth, contentHeight)
		m.gmailView.SetSize(contentWidth, contentHeight)
		m.advisorView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case login.LoggedInMsg:
		cmd := m.startSession(msg.User)
		return m, cmd

	case dashview.SessionExpiredMsg:
		cmd := m.endSession("Your session has expired, please log in again")
		return m, cmd

	case gmailview.SyncedMsg:
		m.statusMessage = fmt.Sprintf("Gmail synced: %s", gmailsvc.NewTransactionsLabel(&msg.Result))
		cmd := m.dashboardView.Refresh()
		return m, cmd

	case dashview.LoadedMsg:
		var cmd tea.Cmd
		m.dashboardView, cmd = m.dashboardView.Update(msg)
		return m, cmd

	case advisorview.CloseMsg:
		m.currentView = ViewDashboard
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		m.statusMessage = ""

		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if m.currentView == ViewCommand && key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		if m.inputFocused() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command):
			m.previousView = m.currentView
			m.currentView = ViewCommand
			cmd := m.commandView.Focus()
			return m, cmd

		case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
			m.currentView = m.previousView
			return m, nil

		case key.Matches(msg, m.keys.Dashboard):
			return m.switchTo(ViewDashboard)

		case key.Matches(msg, m.keys.Gmail):
			return m.switchTo(ViewGmail)

		case key.Matches(msg, m.keys.Advisor):
			return m.switchTo(ViewAdvisor)

		case key.Matches(msg, m.keys.NextView):
			return m.switchTo(m.nextTab())
		}

	default:
		// Background results (loads, answers, spinner ticks) belong to
		// whichever view started them, active or not.
		if m.currentView != ViewLogin {
			return m.broadcast(msg)
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// inputFocused reports whether the active view is taking text input, in
// which case global single-key shortcuts are not intercepted.
func (m Model) inputFocused() bool {
	switch m.currentView {
	case ViewLogin, ViewAdvisor, ViewCommand:
		return true
	case ViewGmail:
		return m.gmailView.InputFocused()
	}
	return false
}

func (m Model) switchTo(view ViewState) (tea.Model, tea.Cmd) {
	m.currentView = view
	switch view {
	case ViewAdvisor:
		cmd := m.advisorView.Focus()
		return m, cmd
	case ViewGmail:
		cmd := m.gmailView.Start()
		return m, cmd
	}
	return m, nil
}

func (m Model) nextTab() ViewState {
	for i, t := range tabs {
		if t.view == m.currentView {
			return tabs[(i+1)%len(tabs)].view
		}
	}
	return ViewDashboard
}

// broadcast delivers a non-key message to every session view.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds [4]tea.Cmd
	m.dashboardView, cmds[0] = m.dashboardView.Update(msg)
	m.gmailView, cmds[1] = m.gmailView.Update(msg)
	m.advisorView, cmds[2] = m.advisorView.Update(msg)
	if m.currentView == ViewCommand {
		m.commandView, cmds[3] = m.commandView.Update(msg)
	}
	return m, tea.Batch(cmds[:]...)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewDashboard:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	case ViewGmail:
		m.gmailView, cmd = m.gmailView.Update(msg)
	case ViewAdvisor:
		m.advisorView, cmd = m.advisorView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var headerTabs []ui.Tab
	if m.user != nil {
		for _, t := range tabs {
			headerTabs = append(headerTabs, ui.Tab{Label: t.label, Active: t.view == m.currentView})
		}
	}

	header := m.layout.RenderHeader("FinanceAI", headerTabs, m.sessionStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewGmail:
		return m.gmailView.View()
	case ViewAdvisor:
		return m.advisorView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// sessionStatus is the right side of the header.
func (m Model) sessionStatus() string {
	if m.user == nil {
		return "not logged in"
	}

	status := m.user.Initials() + " " + m.user.Name
	switch st := m.gmail.State().(type) {
	case gmailsvc.Connecting:
		status = "connecting gmail · " + status
	case gmailsvc.Connected:
		if st.Syncing {
			status = "syncing gmail · " + status
		}
	}
	if m.dashboardView.Stale() {
		status = "offline · " + status
	}
	return status
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMessage != "" {
		return m.statusMessage
	}

	switch m.currentView {
	case ViewLogin:
		return "enter next | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewAdvisor:
		return "enter send | tab suggestion | ctrl+l clear | esc back"
	case ViewGmail:
		switch m.gmail.State().(type) {
		case gmailsvc.FormOpen:
			return "enter next | esc cancel"
		case gmailsvc.Connected:
			return "s sync | d disconnect | 1 dashboard | q quit"
		}
		return "c connect | 1 dashboard | q quit"
	default:
		return "r refresh | j/k scroll | 2 gmail | 3 advisor | : command | ? help | q quit"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	if m.user == nil {
		return nil
	}

	switch cmd {
	case "dashboard":
		m.currentView = ViewDashboard
		return nil
	case "refresh":
		m.currentView = ViewDashboard
		return m.dashboardView.Refresh()
	case "gmail":
		m.currentView = ViewGmail
		return m.gmailView.Start()
	case "connect":
		m.currentView = ViewGmail
		return m.gmailView.Connect()
	case "sync":
		m.currentView = ViewGmail
		c := m.gmailView.Sync()
		if c == nil {
			err := gmailsvc.ErrNotConnected
			if st, ok := m.gmail.State().(gmailsvc.Connected); ok && st.Syncing {
				err = gmailsvc.ErrInFlight
			}
			m.statusMessage = gmailsvc.Message(err)
		}
		return c
	case "disconnect":
		m.currentView = ViewGmail
		return m.gmailView.Disconnect()
	case "advisor":
		m.currentView = ViewAdvisor
		return m.advisorView.Focus()
	case "clear chat", "clear":
		m.advisorView.Clear()
		return nil
	case "logout":
		return m.endSession("")
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "quit", "q":
		m.Close()
		return tea.Quit
	default:
		m.statusMessage = fmt.Sprintf("Unknown command %q", cmd)
		return nil
	}
}
