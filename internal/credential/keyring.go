package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/financeai/internal/model"
)

const serviceName = "financeai"

// Keys under which the login session is stored.
const (
	tokenKey = "api-token"
	userKey  = "api-user"
)

// ErrNoSession is returned when no login session is stored.
var ErrNoSession = errors.New("not logged in")

// TokenSource supplies the bearer token for backend requests. An empty
// token with a nil error means no session exists.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

// Token returns the static token.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Store keeps the login session in the system keyring.
type Store struct {
	ring keyring.Keyring
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open returns a Store backed by the first available system keyring
// backend, falling back to an encrypted file under configDir.
func Open(configDir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(configDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("financeai-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key string, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Token implements TokenSource. A missing session yields an empty token
// so the request goes out unauthenticated and the server rejects it.
func (s *Store) Token(context.Context) (string, error) {
	token, err := s.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return token, err
}

// SaveSession stores the access token and user returned by a login.
func (s *Store) SaveSession(token string, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling user: %w", err)
	}
	if err := s.Set(tokenKey, token); err != nil {
		return err
	}
	return s.Set(userKey, string(data))
}

// User returns the logged-in user, or ErrNoSession.
func (s *Store) User() (*model.User, error) {
	raw, err := s.Get(userKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("unmarshaling user: %w", err)
	}
	return &user, nil
}

// ClearSession removes the stored token and user.
func (s *Store) ClearSession() error {
	if err := s.Delete(tokenKey); err != nil {
		return err
	}
	return s.Delete(userKey)
}
