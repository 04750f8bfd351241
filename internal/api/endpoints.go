package api

import (
	"context"
	"net/url"

	"github.com/nhle/financeai/internal/model"
)

// Backend routes.
const (
	PathLogin          = "/api/token"
	PathRegister       = "/api/register"
	PathGmailConnect   = "/api/gmail/connect"
	PathGmailSync      = "/api/gmail/sync"
	PathDashboardStats = "/api/dashboard/stats"
	PathSpending       = "/api/analytics/spending"
	PathTransactions   = "/api/transactions"
	PathGoals          = "/api/goals"
	PathAdvice         = "/api/ai/advice"
)

// LoginResponse is returned by the token endpoint.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        model.User `json:"user"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GmailCredentials is the body of both Gmail endpoints.
type GmailCredentials struct {
	Email       string `json:"email"`
	AppPassword string `json:"app_password"`
}

// SyncResponse reports the outcome of a Gmail sync.
type SyncResponse struct {
	TotalFound      int `json:"total_found"`
	NewTransactions int `json:"new_transactions"`
}

type adviceRequest struct {
	Query string `json:"query"`
}

type adviceResponse struct {
	Response string `json:"response"`
}

// Login exchanges email and password for an access token. The token
// endpoint expects an OAuth2 password form, not JSON.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp LoginResponse
	if err := c.postForm(ctx, PathLogin, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var user model.User
	if err := c.postPublic(ctx, PathRegister, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ConnectGmail asks the backend to verify and store a Gmail app password.
// Any 2xx response counts as success; the body is ignored.
func (c *Client) ConnectGmail(ctx context.Context, creds GmailCredentials) error {
	return c.Post(ctx, PathGmailConnect, creds, nil)
}

// SyncGmail asks the backend to import transactions from the mailbox.
func (c *Client) SyncGmail(ctx context.Context, creds GmailCredentials) (*SyncResponse, error) {
	var resp SyncResponse
	if err := c.Post(ctx, PathGmailSync, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DashboardStats fetches the stat card figures.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := c.Get(ctx, PathDashboardStats, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SpendingAnalytics fetches the per-category spending breakdown.
func (c *Client) SpendingAnalytics(ctx context.Context) (*model.SpendingAnalytics, error) {
	var spending model.SpendingAnalytics
	if err := c.Get(ctx, PathSpending, &spending); err != nil {
		return nil, err
	}
	return &spending, nil
}

// Transactions fetches recent transactions, newest first.
func (c *Client) Transactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.Get(ctx, PathTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Goals fetches the savings goals.
func (c *Client) Goals(ctx context.Context) ([]model.Goal, error) {
	var goals []model.Goal
	if err := c.Get(ctx, PathGoals, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// Advice sends a question to the AI advisor and returns its answer.
func (c *Client) Advice(ctx context.Context, query string) (string, error) {
	var resp adviceResponse
	if err := c.Post(ctx, PathAdvice, adviceRequest{Query: query}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
