package mockapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/credential"
	"github.com/nhle/financeai/internal/gmail"
	"github.com/nhle/financeai/internal/mockapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, mutate ...func(*mockapi.Config)) *httptest.Server {
	t.Helper()
	cfg := mockapi.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.RequestsPerSecond = 0
	for _, m := range mutate {
		m(&cfg)
	}

	s, err := mockapi.New(cfg, zerolog.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	resp, err := api.NewClient(baseURL, nil).Login(context.Background(), "demo@financeai.dev", "demo1234")
	require.NoError(t, err)
	return api.NewClient(baseURL, credential.StaticToken(resp.AccessToken))
}

func TestLogin(t *testing.T) {
	srv := newServer(t)
	c := api.NewClient(srv.URL, nil)

	resp, err := c.Login(context.Background(), "Demo@FinanceAI.dev", "demo1234")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "Demo User", resp.User.Name)

	_, err = c.Login(context.Background(), "demo@financeai.dev", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	detail, _ := api.Detail(err)
	assert.Equal(t, "Incorrect email or password", detail)
}

func TestRegister(t *testing.T) {
	srv := newServer(t)
	c := api.NewClient(srv.URL, nil)

	user, err := c.Register(context.Background(), api.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotZero(t, user.ID)

	_, err = c.Register(context.Background(), api.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret123"})
	require.Error(t, err)
	detail, _ := api.Detail(err)
	assert.Equal(t, "Email already registered", detail)

	resp, err := c.Login(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.User.Name)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newServer(t)

	_, err := api.NewClient(srv.URL, credential.StaticToken("")).DashboardStats(context.Background())
	require.Error(t, err)
	detail, _ := api.Detail(err)
	assert.Equal(t, "Not authenticated", detail)

	_, err = api.NewClient(srv.URL, credential.StaticToken("garbage")).Goals(context.Background())
	require.Error(t, err)
	detail, _ = api.Detail(err)
	assert.Equal(t, "Could not validate credentials", detail)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	other := newServer(t, func(c *mockapi.Config) { c.Secret = "another-secret" })
	resp, err := api.NewClient(other.URL, nil).Login(context.Background(), "demo@financeai.dev", "demo1234")
	require.NoError(t, err)

	srv := newServer(t)
	_, err = api.NewClient(srv.URL, credential.StaticToken(resp.AccessToken)).Goals(context.Background())
	assert.True(t, api.IsUnauthorized(err))
}

func TestDashboardEndpoints(t *testing.T) {
	srv := newServer(t)
	c := login(t, srv.URL)
	ctx := context.Background()

	stats, err := c.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "52.4", stats.SavingsRate.String())

	spending, err := c.SpendingAnalytics(ctx)
	require.NoError(t, err)
	assert.Len(t, spending.Data, 6)
	assert.Equal(t, "2880", spending.Total.String())

	txs, err := c.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 6)
	assert.Equal(t, "Salary Deposit", txs[0].Title)
	assert.True(t, txs[1].Amount.IsNegative())

	goals, err := c.Goals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.InDelta(t, 0.75, goals[0].Progress(), 0.0001)
}

func TestGmailFlow(t *testing.T) {
	srv := newServer(t)
	c := login(t, srv.URL)
	ctrl := gmail.NewController(c)
	ctx := context.Background()

	ctrl.OpenForm()
	err := ctrl.Connect(ctx, gmail.Credential{Email: "alice@gmail.com", AppPassword: "short"})
	require.Error(t, err)
	assert.Equal(t, "Invalid app password", gmail.Message(err))
	assert.Equal(t, gmail.StatusFormOpen, ctrl.State().Status())

	require.NoError(t, ctrl.Connect(ctx, gmail.Credential{Email: "alice@gmail.com", AppPassword: "abcd 1234 efgh 5678"}))

	first, err := ctrl.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, first.TotalFound)
	assert.Equal(t, 5, first.NewTransactions)

	second, err := ctrl.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewTransactions)
}

func TestGmailSyncWithoutConnect(t *testing.T) {
	srv := newServer(t)
	c := login(t, srv.URL)

	_, err := c.SyncGmail(context.Background(), api.GmailCredentials{Email: "alice@gmail.com", AppPassword: "abcd1234efgh5678"})
	require.Error(t, err)
	detail, _ := api.Detail(err)
	assert.Equal(t, "Gmail not connected", detail)
}

func TestAdvice(t *testing.T) {
	srv := newServer(t)
	c := login(t, srv.URL)

	answer, err := c.Advice(context.Background(), "How can I save more?")
	require.NoError(t, err)
	assert.Contains(t, answer, "$180/month")

	answer, err = c.Advice(context.Background(), "Anything else?")
	require.NoError(t, err)
	assert.Contains(t, answer, "52.4%")
}

func TestRateLimit(t *testing.T) {
	srv := newServer(t, func(c *mockapi.Config) {
		c.RequestsPerSecond = 0.001
		c.Burst = 2
	})

	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestNew_RequiresSecret(t *testing.T) {
	cfg := mockapi.DefaultConfig()
	cfg.Secret = ""
	_, err := mockapi.New(cfg, zerolog.Nop())
	assert.Error(t, err)
}
