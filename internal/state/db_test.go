package state_test

import (
	"testing"

	"github.com/orionsagar/catalog-console/internal/state"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTokenRoundTrip(t *testing.T) {
	db := openTestDB(t)

	token, err := db.LoadToken()
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, db.SaveToken("abc.def.ghi"))
	token, err = db.LoadToken()
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	// Saving again replaces the previous token.
	require.NoError(t, db.SaveToken("new.token.value"))
	token, err = db.LoadToken()
	require.NoError(t, err)
	require.Equal(t, "new.token.value", token)
}

func TestClearToken(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveToken("abc"))
	require.NoError(t, db.ClearToken())

	token, err := db.LoadToken()
	require.NoError(t, err)
	require.Empty(t, token)

	// Clearing when already empty is fine.
	require.NoError(t, db.ClearToken())
}

func TestSearchPrefs(t *testing.T) {
	db := openTestDB(t)

	term, err := db.LoadSearch("/dashboard/products")
	require.NoError(t, err)
	require.Empty(t, term)

	require.NoError(t, db.SaveSearch("/dashboard/products", "widget"))
	require.NoError(t, db.SaveSearch("/dashboard/projects", "alpha"))

	term, err = db.LoadSearch("/dashboard/products")
	require.NoError(t, err)
	require.Equal(t, "widget", term)

	require.NoError(t, db.SaveSearch("/dashboard/products", ""))
	term, err = db.LoadSearch("/dashboard/products")
	require.NoError(t, err)
	require.Empty(t, term)
}
