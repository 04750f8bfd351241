// Package mockapi is an in-process stand-in for the FinanceAI backend.
// It serves the same routes and fixtures the dashboard expects and is
// used for local development and tests.
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/nhle/financeai/internal/api"
)

// Config tunes the mock server.
type Config struct {
	// Secret signs access tokens.
	Secret string

	// TokenTTL is the access token lifetime.
	TokenTTL time.Duration

	// RequestsPerSecond and Burst bound each client IP. Zero disables
	// rate limiting.
	RequestsPerSecond float64
	Burst             int

	// Latency delays every response, to exercise spinners.
	Latency time.Duration

	// DemoUser seeds an account when Email is set.
	DemoUser DemoUser

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// DemoUser is an account created at startup.
type DemoUser struct {
	Name     string
	Email    string
	Password string
}

// DefaultConfig returns settings suitable for `financeai mock-server`.
func DefaultConfig() Config {
	return Config{
		Secret:            "financeai-mock-secret",
		TokenTTL:          30 * time.Minute,
		RequestsPerSecond: 20,
		Burst:             40,
		DemoUser: DemoUser{
			Name:     "Demo User",
			Email:    "demo@financeai.dev",
			Password: "demo1234",
		},
	}
}

// Server is the mock backend.
type Server struct {
	cfg    Config
	engine *gin.Engine
	users  *users
	tokens *tokens
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	gmail map[string]*mailbox
}

// mailbox is the Gmail state of one user.
type mailbox struct {
	email       string
	appPassword string
	syncs       int
}

// New builds the server and seeds the demo user.
func New(cfg Config, logger zerolog.Logger) (*Server, error) {
	if cfg.Secret == "" {
		return nil, errors.New("mockapi: secret must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "mockapi").Logger(),
		now:    time.Now,
		gmail:  make(map[string]*mailbox),
	}
	s.users = newUsers(cfg.BcryptCost, s.now)
	s.tokens = &tokens{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL, now: s.now}

	if cfg.DemoUser.Email != "" {
		if _, err := s.users.create(cfg.DemoUser.Name, cfg.DemoUser.Email, cfg.DemoUser.Password); err != nil {
			return nil, err
		}
	}

	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("mock backend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if s.cfg.RequestsPerSecond > 0 {
		r.Use(newRateLimiter(rate.Limit(s.cfg.RequestsPerSecond), max(s.cfg.Burst, 1)).middleware())
	}
	if s.cfg.Latency > 0 {
		r.Use(func(c *gin.Context) {
			select {
			case <-time.After(s.cfg.Latency):
			case <-c.Request.Context().Done():
			}
			c.Next()
		})
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST(api.PathLogin, s.handleLogin)
	r.POST(api.PathRegister, s.handleRegister)

	authorized := r.Group("/")
	authorized.Use(s.authMiddleware())
	authorized.GET(api.PathDashboardStats, s.handleStats)
	authorized.GET(api.PathSpending, s.handleSpending)
	authorized.GET(api.PathTransactions, s.handleTransactions)
	authorized.GET(api.PathGoals, s.handleGoals)
	authorized.POST(api.PathGmailConnect, s.handleGmailConnect)
	authorized.POST(api.PathGmailSync, s.handleGmailSync)
	authorized.POST(api.PathAdvice, s.handleAdvice)

	r.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "Not Found")
	})

	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// abort writes the backend's error shape.
func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// validAppPassword accepts Google's 16-letter app passwords, with or
// without the spaces Google displays them with.
func validAppPassword(p string) bool {
	p = strings.ReplaceAll(p, " ", "")
	if len(p) != 16 {
		return false
	}
	for _, r := range p {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
