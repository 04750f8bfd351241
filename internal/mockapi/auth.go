package mockapi

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/financeai/internal/model"
)

const (
	tokenIssuer = "financeai-mock"
	claimName   = "name"
	claimUserID = "uid"
	ctxUserKey  = "user"
)

var (
	errEmailTaken   = errors.New("email already registered")
	errBadLogin     = errors.New("incorrect email or password")
	errUnknownEmail = errors.New("unknown user")
)

type account struct {
	user model.User
	hash []byte
}

// users is an in-memory account table with bcrypt password hashes.
type users struct {
	mu     sync.RWMutex
	byMail map[string]*account
	nextID int
	cost   int
	now    func() time.Time
}

func newUsers(cost int, now func() time.Time) *users {
	return &users{byMail: make(map[string]*account), nextID: 1, cost: cost, now: now}
}

func (u *users) create(name, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return model.User{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, exists := u.byMail[email]; exists {
		return model.User{}, errEmailTaken
	}

	user := model.User{ID: u.nextID, Email: email, Name: strings.TrimSpace(name), CreatedAt: u.now().UTC()}
	u.nextID++
	u.byMail[email] = &account{user: user, hash: hash}
	return user, nil
}

func (u *users) authenticate(email, password string) (model.User, error) {
	u.mu.RLock()
	acc, ok := u.byMail[strings.ToLower(strings.TrimSpace(email))]
	u.mu.RUnlock()
	if !ok {
		return model.User{}, errBadLogin
	}

	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return model.User{}, errBadLogin
	}
	return acc.user, nil
}

func (u *users) get(email string) (model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	acc, ok := u.byMail[email]
	if !ok {
		return model.User{}, errUnknownEmail
	}
	return acc.user, nil
}

// tokens issues and verifies HS256 access tokens.
type tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t *tokens) issue(user model.User) (string, error) {
	now := t.now()
	tok, err := jwt.NewBuilder().
		Issuer(tokenIssuer).
		Subject(user.Email).
		IssuedAt(now).
		Expiration(now.Add(t.ttl)).
		Claim(claimName, user.Name).
		Claim(claimUserID, user.ID).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// subject validates the request's bearer token and returns its subject.
func (t *tokens) subject(r *http.Request) (string, error) {
	tok, err := jwt.ParseRequest(r,
		jwt.WithKey(jwa.HS256, t.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithClock(jwt.ClockFunc(t.now)),
	)
	if err != nil {
		return "", err
	}
	if tok.Subject() == "" {
		return "", errors.New("token missing subject")
	}
	return tok.Subject(), nil
}

// authMiddleware rejects requests without a valid bearer token and
// stores the caller's model.User in the gin context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abort(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		email, err := s.tokens.subject(c.Request)
		if err != nil {
			s.logger.Debug().Err(err).Msg("rejecting token")
			abort(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		user, err := s.users.get(email)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) model.User {
	user, _ := c.MustGet(ctxUserKey).(model.User)
	return user
}
