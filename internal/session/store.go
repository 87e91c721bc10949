// Package session owns the authentication token and the identity derived
// from it. The store is a single instance shared by every screen; consumers
// subscribe to be told about login and logout instead of polling.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity holds the claims decoded from the bearer token.
type Identity struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// TokenStore persists the bearer token across process restarts.
type TokenStore interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	ClearToken() error
}

// Store holds the current session. It is created once at startup and lives
// for the whole application; only its token state changes.
type Store struct {
	tokens TokenStore
	logger *slog.Logger

	mu       sync.Mutex
	token    string
	identity *Identity
	subs     map[int]func()
	nextSub  int
}

// NewStore creates a session store backed by the given token persistence.
func NewStore(tokens TokenStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		tokens: tokens,
		logger: logger,
		subs:   make(map[int]func()),
	}
}

// Rehydrate restores a previously persisted token. A persisted token that no
// longer decodes is discarded so the invariant between token and identity
// holds. An expired-but-decodable token is kept; the backend decides when it
// stops being honored.
func (s *Store) Rehydrate() error {
	token, err := s.tokens.LoadToken()
	if err != nil {
		return fmt.Errorf("rehydrating session: %w", err)
	}
	if token == "" {
		return nil
	}

	identity, err := decodeIdentity(token)
	if err != nil {
		s.logger.Warn("discarding undecodable persisted token", "error", err)
		if clearErr := s.tokens.ClearToken(); clearErr != nil {
			return fmt.Errorf("clearing stale token: %w", clearErr)
		}
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.mu.Unlock()
	s.notify()
	return nil
}

// Login persists the token, decodes its claims and publishes the new
// identity to subscribers. The session is left untouched when the token does
// not decode or lacks required claims.
func (s *Store) Login(token string) error {
	identity, err := decodeIdentity(token)
	if err != nil {
		return err
	}

	if err := s.tokens.SaveToken(token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.mu.Unlock()

	s.logger.Info("logged in", "subject", identity.Subject, "role", identity.Role)
	s.notify()
	return nil
}

// Logout clears persisted and in-memory session state. It is idempotent.
func (s *Store) Logout() {
	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Warn("failed to clear persisted token", "error", err)
	}

	s.mu.Lock()
	wasLoggedIn := s.token != ""
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	if wasLoggedIn {
		s.logger.Info("logged out")
	}
	s.notify()
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Identity returns the decoded identity, or nil when logged out.
func (s *Store) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

// LoggedIn reports whether a token is present.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

// Subscribe registers fn to run after every session state change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// decodeIdentity extracts claims without signature verification; the token
// is opaque proof for the backend, the console only reads who it names.
func decodeIdentity(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if subject == "" {
		subject = email
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return nil, fmt.Errorf("%w: role", ErrMissingClaim)
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil, fmt.Errorf("%w: exp", ErrMissingClaim)
	}

	return &Identity{
		Subject:   subject,
		Email:     email,
		Role:      role,
		ExpiresAt: expiry.Time,
	}, nil
}
