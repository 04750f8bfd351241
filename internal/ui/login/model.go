package login

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/theme"
)

// LoggedInMsg is sent once a session has been stored.
type LoggedInMsg struct {
	User model.User
}

type failedMsg struct{ err error }

const (
	actionLogin    = "login"
	actionRegister = "register"
)

// Authenticator is what the login screen needs from the API client.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*model.User, error)
}

// SessionStore keeps the session once logged in.
type SessionStore interface {
	SaveSession(token string, user model.User) error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	action   string
	name     string
	email    string
	password string
}

// Model is the login / registration screen.
type Model struct {
	auth    Authenticator
	session SessionStore
	form    *huh.Form
	fb      *formBindings
	spinner spinner.Model
	busy    bool
	notice  string
	width   int
	height  int
}

// New creates the login screen.
func New(auth Authenticator, session SessionStore, width, height int) Model {
	return Model{
		auth:    auth,
		session: session,
		fb:      &formBindings{action: actionLogin},
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   width,
		height:  height,
	}
}

// Start shows a fresh form. notice, if set, is displayed above it (e.g.
// "Session expired").
func (m *Model) Start(notice string) tea.Cmd {
	m.notice = notice
	m.busy = false
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome to FinanceAI").
				Options(
					huh.NewOption("Log in", actionLogin),
					huh.NewOption("Create an account", actionRegister),
				).
				Value(&fb.action),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Full name").
				Value(&fb.name).
				Validate(required("Name")),
		).WithHideFunc(func() bool { return fb.action != actionRegister }),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&fb.email).
				Validate(required("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password).
				Validate(required("Password")),
		),
	).WithShowHelp(false).WithWidth(min(m.width-8, 60))
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// Update handles messages for the login screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case failedMsg:
		m.busy = false
		m.notice = errorMessage(msg.err)
		m.fb.password = ""
		m.form = m.buildForm()
		return m, m.form.Init()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.notice = ""
		return m, tea.Batch(m.submit(*m.fb), m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) submit(fb formBindings) tea.Cmd {
	auth, session := m.auth, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if fb.action == actionRegister {
			_, err := auth.Register(ctx, api.RegisterRequest{Name: fb.name, Email: fb.email, Password: fb.password})
			if err != nil {
				return failedMsg{err: err}
			}
		}
		resp, err := auth.Login(ctx, fb.email, fb.password)
		if err != nil {
			return failedMsg{err: err}
		}
		if err := session.SaveSession(resp.AccessToken, resp.User); err != nil {
			return failedMsg{err: err}
		}
		return LoggedInMsg{User: resp.User}
	}
}

// View renders the login screen.
func (m Model) View() string {
	sections := []string{theme.TitleStyle.Render("FinanceAI")}
	if m.notice != "" {
		sections = append(sections, theme.ErrorStyle.Render(m.notice), "")
	}
	switch {
	case m.busy:
		sections = append(sections, m.spinner.View()+" Signing in...")
	case m.form != nil:
		sections = append(sections, m.form.View(), theme.HelpStyle.Render("enter next · shift+tab back · ctrl+c quit"))
	}

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...)),
	)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(min(width-8, 60))
	}
}

func errorMessage(err error) string {
	if detail, ok := api.Detail(err); ok {
		return detail
	}
	if api.IsTransport(err) {
		return "Failed to connect to server"
	}
	return "Something went wrong, please try again"
}
