package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/financeai/internal/credential"
	"github.com/nhle/financeai/internal/mockapi"
	"github.com/nhle/financeai/internal/model"
	"github.com/nhle/financeai/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// harness runs commands against a mock backend with an in-memory keyring
// and a config file under a temp dir.
type harness struct {
	t          *testing.T
	configPath string
	creds      *credential.Store
	d          deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := mockapi.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.RequestsPerSecond = 0
	srv, err := mockapi.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	appCfg, err := model.LoadConfig(configPath)
	require.NoError(t, err)
	appCfg.API.URL = ts.URL
	appCfg.Log.File = filepath.Join(dir, "financeai.log")
	appCfg.Cache.Path = filepath.Join(dir, "cache.db")
	require.NoError(t, model.SaveConfig(configPath, appCfg))

	creds := credential.New(keyring.NewArrayKeyring(nil))
	return &harness{
		t:          t,
		configPath: configPath,
		creds:      creds,
		d: deps{
			openCredentials: func(string) (*credential.Store, error) { return creds, nil },
			openCache: func(path string) (store.Store, error) {
				return store.NewSQLiteStore(path)
			},
		},
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(h.d)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	_, err := h.run("login", "--email", "demo@financeai.dev", "--password", "demo1234")
	require.NoError(h.t, err)
}

func TestLogin_StoresSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("login", "--email", "demo@financeai.dev", "--password", "demo1234")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Demo User")

	token, err := h.creds.Token(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo User <demo@financeai.dev>")
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--email", "demo@financeai.dev", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect email or password")

	_, err = h.creds.User()
	assert.ErrorIs(t, err, credential.ErrNoSession)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestRegister_LogsIn(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("register", "--name", "Alice Doe", "--email", "alice@example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Alice Doe")

	_, err = h.run("register", "--name", "Alice Doe", "--email", "alice@example.com", "--password", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email already registered")
}

func TestGmailSync(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("gmail", "sync", "--email", "alice@gmail.com", "--app-password", "abcd efgh ijkl mnop")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected to alice@gmail.com")
	assert.Contains(t, out, "Scanned 24 emails")
	assert.Contains(t, out, "5 this month")
	assert.Contains(t, out, "Just now")
}

func TestGmailConnect_InvalidAppPassword(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("gmail", "connect", "--email", "alice@gmail.com", "--app-password", "short")
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid app password")
}

func TestGmailConnect_NotLoggedIn(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("gmail", "connect", "--email", "alice@gmail.com", "--app-password", "abcdefghijklmnop")
	require.Error(t, err)
	assert.EqualError(t, err, "Not authenticated")
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "$24,580.00")
	assert.Contains(t, out, "52.4%")
	assert.Contains(t, out, "Emergency Fund")
	assert.Contains(t, out, "Salary Deposit")
	assert.NotContains(t, out, "cached data")

	// The successful load was cached.
	out, err = h.run("dashboard", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Salary Deposit")
	assert.Contains(t, out, "cached data")
}

func TestDashboard_Unauthorized(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("dashboard")
	require.Error(t, err)
}

func TestAdvise(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("advise", "How", "can", "I", "save", "more?")
	require.NoError(t, err)
	assert.Contains(t, out, "dining out")

	out, err = h.run("advise")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyze my spending patterns")
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	_, err := h.run("--config", path, "--env", "production", "config", "init")
	require.NoError(t, err)

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.EnvProduction, cfg.API.Environment)

	_, err = h.run("--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUnknownEnvironment(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("--env", "staging", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown environment")
}
