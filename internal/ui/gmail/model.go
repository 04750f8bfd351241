package gmail

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	gmailsvc "github.com/nhle/financeai/internal/gmail"
	"github.com/nhle/financeai/internal/keys"
	"github.com/nhle/financeai/internal/theme"
)

// SyncedMsg tells the parent a sync finished so it can reload the
// dashboard.
type SyncedMsg struct {
	Result gmailsvc.SyncResult
}

type connectDoneMsg struct{ err error }

type syncDoneMsg struct{ err error }

// clockTickMsg re-renders the "Last sync" label. Ticks from an earlier
// connection carry a stale id and are dropped.
type clockTickMsg struct{ id int }

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email       string
	appPassword string
}

// Model is the Gmail connection panel. All state lives in the
// controller; the view re-reads it on every render.
type Model struct {
	ctrl    *gmailsvc.Controller
	keys    *keys.KeyMap
	form    *huh.Form
	fb      *formBindings
	spinner spinner.Model
	now     func() time.Time

	// pending is set when a connect or sync command is issued, before the
	// controller has moved to Connecting or Syncing.
	pending bool
	clockID int

	// notice is a transient message that is not part of the controller
	// state, e.g. "Already in progress".
	notice string

	width  int
	height int
}

// New creates the panel for ctrl.
func New(ctrl *gmailsvc.Controller, k *keys.KeyMap, width, height int) Model {
	return Model{
		ctrl:    ctrl,
		keys:    k,
		fb:      &formBindings{},
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorBlue))),
		now:     time.Now,
		width:   width,
		height:  height,
	}
}

// Start rebuilds the form if the controller is already showing one.
func (m *Model) Start() tea.Cmd {
	if st, ok := m.ctrl.State().(gmailsvc.FormOpen); ok {
		return m.startForm(st.Draft)
	}
	return nil
}

// InputFocused reports whether the credential form is taking keystrokes,
// so the parent must not treat them as global shortcuts.
func (m Model) InputFocused() bool {
	_, ok := m.ctrl.State().(gmailsvc.FormOpen)
	return ok && m.form != nil
}

// Busy reports whether a connect or sync request is outstanding.
func (m Model) Busy() bool {
	switch st := m.ctrl.State().(type) {
	case gmailsvc.Connecting:
		return true
	case gmailsvc.Connected:
		return st.Syncing
	}
	return false
}

// Update handles messages for the Gmail panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectDoneMsg:
		return m.handleConnectDone(msg)

	case syncDoneMsg:
		return m.handleSyncDone(msg)

	case spinner.TickMsg:
		if !m.pending && !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clockTickMsg:
		if _, ok := m.ctrl.State().(gmailsvc.Connected); ok && msg.id == m.clockID {
			return m, m.clockTick()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.InputFocused() {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch st := m.ctrl.State().(type) {
	case gmailsvc.Disconnected:
		if key.Matches(msg, m.keys.Connect) {
			m.notice = ""
			m.ctrl.OpenForm()
			cmd := m.startForm(gmailsvc.Credential{})
			return m, cmd
		}

	case gmailsvc.FormOpen:
		if key.Matches(msg, m.keys.Back) {
			m.ctrl.CancelForm()
			m.form = nil
			return m, nil
		}
		return m.updateForm(msg)

	case gmailsvc.Connected:
		switch {
		case key.Matches(msg, m.keys.Sync):
			if st.Syncing {
				m.notice = gmailsvc.Message(gmailsvc.ErrInFlight)
				return m, nil
			}
			m.notice = ""
			m.pending = true
			return m, tea.Batch(m.sync(), m.spinner.Tick)

		case key.Matches(msg, m.keys.Disconnect):
			m.notice = ""
			m.ctrl.Disconnect()
			cmd := m.startForm(gmailsvc.Credential{})
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		cred := gmailsvc.Credential{Email: m.fb.email, AppPassword: m.fb.appPassword}
		m.form = nil
		m.pending = true
		return m, tea.Batch(m.connect(cred), m.spinner.Tick)
	case huh.StateAborted:
		m.ctrl.CancelForm()
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) handleConnectDone(msg connectDoneMsg) (Model, tea.Cmd) {
	m.pending = false
	switch st := m.ctrl.State().(type) {
	case gmailsvc.FormOpen:
		// Rejected: show the form again with what the user typed.
		cmd := m.startForm(st.Draft)
		return m, cmd
	case gmailsvc.Connected:
		m.notice = ""
		m.clockID++
		return m, m.clockTick()
	}
	if msg.err != nil && !errors.Is(msg.err, gmailsvc.ErrDiscarded) {
		m.notice = gmailsvc.Message(msg.err)
	}
	return m, nil
}

func (m Model) handleSyncDone(msg syncDoneMsg) (Model, tea.Cmd) {
	m.pending = false
	if msg.err != nil {
		// Failures are recorded on the Connected state; other errors
		// (not connected, discarded) have nothing to show here.
		if errors.Is(msg.err, gmailsvc.ErrInFlight) {
			m.notice = gmailsvc.Message(msg.err)
		}
		return m, nil
	}
	st, ok := m.ctrl.State().(gmailsvc.Connected)
	if !ok || st.Result == nil {
		return m, nil
	}
	result := *st.Result
	return m, func() tea.Msg { return SyncedMsg{Result: result} }
}

// startForm builds a fresh credential form prefilled with draft.
func (m *Model) startForm(draft gmailsvc.Credential) tea.Cmd {
	m.fb.email = draft.Email
	m.fb.appPassword = draft.AppPassword
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gmail address").
				Placeholder("you@gmail.com").
				Value(&m.fb.email),
			huh.NewInput().
				Title("App password").
				Description("Google Account → Security → App passwords").
				Placeholder("xxxx xxxx xxxx xxxx").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.appPassword),
		),
	).WithShowHelp(false).WithWidth(min(m.width-8, 60))
	return m.form.Init()
}

func (m Model) connect(cred gmailsvc.Credential) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return connectDoneMsg{err: ctrl.Connect(context.Background(), cred)}
	}
}

func (m Model) sync() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		_, err := ctrl.Sync(context.Background())
		return syncDoneMsg{err: err}
	}
}

func (m Model) clockTick() tea.Cmd {
	id := m.clockID
	return tea.Tick(30*time.Second, func(time.Time) tea.Msg { return clockTickMsg{id: id} })
}

// Sync starts a sync from outside the panel (command palette). It
// returns nil unless the account is connected and idle.
func (m *Model) Sync() tea.Cmd {
	st, ok := m.ctrl.State().(gmailsvc.Connected)
	if !ok || st.Syncing {
		return nil
	}
	m.pending = true
	return tea.Batch(m.sync(), m.spinner.Tick)
}

// Connect opens the credential form if no account is connected.
func (m *Model) Connect() tea.Cmd {
	if _, ok := m.ctrl.State().(gmailsvc.Disconnected); !ok {
		return nil
	}
	m.ctrl.OpenForm()
	return m.startForm(gmailsvc.Credential{})
}

// Disconnect drops the connection and shows an empty form.
func (m *Model) Disconnect() tea.Cmd {
	if _, ok := m.ctrl.State().(gmailsvc.Connected); !ok {
		return nil
	}
	m.ctrl.Disconnect()
	return m.startForm(gmailsvc.Credential{})
}

// View renders the Gmail panel.
func (m Model) View() string {
	sections := []string{theme.TitleStyle.Render("Gmail Integration")}

	switch st := m.ctrl.State().(type) {
	case gmailsvc.Disconnected:
		sections = append(sections,
			"Connect your Gmail to import bank transactions automatically.",
			"",
			theme.HelpStyle.Render("press c to connect"),
		)

	case gmailsvc.FormOpen:
		if msg := gmailsvc.Message(st.Err); msg != "" {
			sections = append(sections, theme.ErrorStyle.Render(msg), "")
		}
		switch {
		case m.form != nil:
			sections = append(sections, m.form.View(), theme.HelpStyle.Render("enter next · esc cancel"))
		case m.pending:
			sections = append(sections, m.spinner.View()+" Connecting...")
		}

	case gmailsvc.Connecting:
		sections = append(sections, m.spinner.View()+" Connecting to "+strings.TrimSpace(st.Credential.Email)+"...")

	case gmailsvc.Connected:
		sections = append(sections, m.renderConnected(st))
	}

	if m.notice != "" {
		sections = append(sections, "", theme.ErrorStyle.Render(m.notice))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderConnected(st gmailsvc.Connected) string {
	label := theme.MutedStyle.Width(18).Render
	lines := []string{
		theme.SuccessStyle.Render("✓ " + gmailsvc.ConnectedLabel(st.Credential)),
		"",
		label("New transactions") + gmailsvc.NewTransactionsLabel(st.Result),
		label("Last sync") + gmailsvc.FormatSyncedAt(st.Result, m.now()),
	}
	if st.Result != nil {
		lines = append(lines, label("Emails scanned")+humanize.Comma(int64(st.Result.TotalFound)))
	}
	lines = append(lines, "")

	switch {
	case st.Syncing:
		lines = append(lines, m.spinner.View()+" Syncing...")
	case st.Err != nil:
		lines = append(lines, theme.ErrorStyle.Render(gmailsvc.Message(st.Err)))
	}

	lines = append(lines, theme.HelpStyle.Render("s sync now · d disconnect"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(min(width-8, 60))
	}
}
