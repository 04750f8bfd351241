package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nhle/financeai/internal/api"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type gmailRequest struct {
	Email       string `json:"email" binding:"required"`
	AppPassword string `json:"app_password" binding:"required"`
}

type adviceRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")
	if email == "" || password == "" {
		abort(c, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	user, err := s.users.authenticate(email, password)
	if err != nil {
		abort(c, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token, err := s.tokens.issue(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("signing token")
		abort(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, api.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusUnprocessableEntity, "Invalid registration: "+err.Error())
		return
	}

	user, err := s.users.create(req.Name, req.Email, req.Password)
	if errors.Is(err, errEmailTaken) {
		abort(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("creating user")
		abort(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, fixtureStats())
}

func (s *Server) handleSpending(c *gin.Context) {
	c.JSON(http.StatusOK, fixtureSpending())
}

func (s *Server) handleTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, fixtureTransactions())
}

func (s *Server) handleGoals(c *gin.Context) {
	c.JSON(http.StatusOK, fixtureGoals())
}

func (s *Server) handleGmailConnect(c *gin.Context) {
	var req gmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusUnprocessableEntity, "email and app_password are required")
		return
	}
	if !validAppPassword(req.AppPassword) {
		abort(c, http.StatusUnauthorized, "Invalid app password")
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	s.gmail[user.Email] = &mailbox{
		email:       strings.TrimSpace(req.Email),
		appPassword: strings.ReplaceAll(req.AppPassword, " ", ""),
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "Gmail connected successfully", "email": req.Email})
}

func (s *Server) handleGmailSync(c *gin.Context) {
	var req gmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusUnprocessableEntity, "email and app_password are required")
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.gmail[user.Email]
	if !ok {
		abort(c, http.StatusBadRequest, "Gmail not connected")
		return
	}
	if box.email != strings.TrimSpace(req.Email) || box.appPassword != strings.ReplaceAll(req.AppPassword, " ", "") {
		abort(c, http.StatusUnauthorized, "Invalid app password")
		return
	}

	batch := syncBatches[min(box.syncs, len(syncBatches)-1)]
	box.syncs++

	c.JSON(http.StatusOK, api.SyncResponse{
		TotalFound:      batch.total,
		NewTransactions: batch.fresh,
	})
}

func (s *Server) handleAdvice(c *gin.Context) {
	var req adviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusUnprocessableEntity, "query is required")
		return
	}

	q := strings.ToLower(req.Query)
	answer := defaultAdvice
	for _, a := range advice {
		if strings.Contains(q, a.keyword) {
			answer = a.answer
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{"response": answer})
}
