package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/financeai/internal/credential"
)

// Client is a thin HTTP client for the FinanceAI backend. It handles
// Bearer token authentication, JSON (de)serialization and turns non-2xx
// responses into *ServerError. It never retries.
type Client struct {
	baseURL    string
	tokens     credential.TokenSource
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a backend client rooted at baseURL. tokens may be nil
// for callers that only use the public endpoints.
func NewClient(baseURL string, tokens credential.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one backend call.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	auth        bool
}

// Get performs an authenticated GET and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, result)
}

// Post performs an authenticated POST with a JSON body and unmarshals the
// JSON response into result unless result is nil.
func (c *Client) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        data,
		contentType: "application/json",
		auth:        true,
	}, result)
}

// do builds the request, attaches auth and a request ID, and decodes the
// response or the backend's error detail.
func (c *Client) do(ctx context.Context, r request, result interface{}) error {
	var bodyReader io.Reader
	if r.body != nil {
		bodyReader = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	if r.auth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("loading access token: %w", err)
		}
		// No token: let the backend reject the request.
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().
			Str("method", r.method).
			Str("path", r.path).
			Str("request_id", requestID).
			Err(err).
			Msg("backend unreachable")
		return &TransportError{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{
			Method: r.method,
			Path:   r.path,
			Err:    fmt.Errorf("reading response body: %w", err),
		}
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(respBody),
		}
	}

	// No content to parse (e.g. 204, or caller ignores the body).
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", r.method, r.path, err)
	}

	return nil
}

// postForm performs an unauthenticated form-encoded POST.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, result interface{}) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, result)
}

// postPublic performs an unauthenticated JSON POST.
func (c *Client) postPublic(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        data,
		contentType: "application/json",
	}, result)
}

// parseDetail extracts the "detail" string from an error body. Validation
// errors carry a list instead of a string; those yield "".
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
