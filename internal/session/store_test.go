package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/orionsagar/catalog-console/internal/session"
	"github.com/stretchr/testify/require"
)

type memTokenStore struct {
	token string
	fail  bool
}

func (m *memTokenStore) SaveToken(token string) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.token = token
	return nil
}

func (m *memTokenStore) LoadToken() (string, error) { return m.token, nil }

func (m *memTokenStore) ClearToken() error {
	m.token = ""
	return nil
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "admin@example.com",
		"role":  "Admin",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestLoginDecodesClaims(t *testing.T) {
	tokens := &memTokenStore{}
	store := session.NewStore(tokens, nil)
	token := mintToken(t, validClaims())

	require.NoError(t, store.Login(token))

	require.Equal(t, token, store.Token())
	require.Equal(t, token, tokens.token)

	identity := store.Identity()
	require.NotNil(t, identity)
	require.Equal(t, "user-1", identity.Subject)
	require.Equal(t, "admin@example.com", identity.Email)
	require.Equal(t, "Admin", identity.Role)
	require.WithinDuration(t, time.Now().Add(time.Hour), identity.ExpiresAt, time.Minute)
}

func TestLoginRejectsGarbage(t *testing.T) {
	tokens := &memTokenStore{}
	store := session.NewStore(tokens, nil)

	err := store.Login("not-a-token")
	require.ErrorIs(t, err, session.ErrInvalidToken)
	require.Empty(t, store.Token())
	require.Nil(t, store.Identity())
	require.Empty(t, tokens.token)
}

func TestLoginRejectsMissingClaims(t *testing.T) {
	tokens := &memTokenStore{}
	store := session.NewStore(tokens, nil)

	for name, claims := range map[string]jwt.MapClaims{
		"no subject": {"role": "Admin", "exp": time.Now().Add(time.Hour).Unix()},
		"no role":    {"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()},
		"no expiry":  {"sub": "user-1", "role": "Admin"},
	} {
		err := store.Login(mintToken(t, claims))
		require.ErrorIs(t, err, session.ErrMissingClaim, name)
		require.Empty(t, store.Token(), name)
		require.Nil(t, store.Identity(), name)
	}
}

func TestLoginPersistFailureLeavesSessionEmpty(t *testing.T) {
	tokens := &memTokenStore{fail: true}
	store := session.NewStore(tokens, nil)

	err := store.Login(mintToken(t, validClaims()))
	require.Error(t, err)
	require.Empty(t, store.Token())
	require.Nil(t, store.Identity())
}

func TestLogoutIsIdempotent(t *testing.T) {
	tokens := &memTokenStore{}
	store := session.NewStore(tokens, nil)
	require.NoError(t, store.Login(mintToken(t, validClaims())))

	store.Logout()
	require.Empty(t, store.Token())
	require.Nil(t, store.Identity())
	require.Empty(t, tokens.token)

	store.Logout()
	require.Empty(t, store.Token())
	require.Nil(t, store.Identity())
}

func TestExpiredTokenIsKept(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	store := session.NewStore(&memTokenStore{}, nil)
	token := mintToken(t, claims)

	// Expiry is surfaced on the identity but the session is established;
	// only the backend decides when the token stops working.
	require.NoError(t, store.Login(token))
	require.Equal(t, token, store.Token())
	require.True(t, store.Identity().ExpiresAt.Before(time.Now()))
}

func TestRehydrate(t *testing.T) {
	token := mintToken(t, validClaims())
	tokens := &memTokenStore{token: token}

	store := session.NewStore(tokens, nil)
	require.NoError(t, store.Rehydrate())
	require.Equal(t, token, store.Token())
	require.NotNil(t, store.Identity())
}

func TestRehydrateDiscardsBrokenToken(t *testing.T) {
	tokens := &memTokenStore{token: "corrupted"}

	store := session.NewStore(tokens, nil)
	require.NoError(t, store.Rehydrate())
	require.Empty(t, store.Token())
	require.Nil(t, store.Identity())
	require.Empty(t, tokens.token)
}

func TestSubscribeNotified(t *testing.T) {
	store := session.NewStore(&memTokenStore{}, nil)

	var calls int
	unsubscribe := store.Subscribe(func() { calls++ })

	require.NoError(t, store.Login(mintToken(t, validClaims())))
	require.Equal(t, 1, calls)

	store.Logout()
	require.Equal(t, 2, calls)

	unsubscribe()
	store.Logout()
	require.Equal(t, 2, calls)
}
