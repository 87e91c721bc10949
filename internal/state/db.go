// Package state provides the durable client-side store backing the console:
// the persisted bearer token and per-screen preferences, kept in a local
// SQLite database so they survive restarts.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const tokenKey = "token"

// DB wraps the local SQLite state database.
type DB struct {
	*sql.DB
}

// Open opens (and if necessary initializes) the state database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS credentials (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS screen_prefs (
    route TEXT PRIMARY KEY,
    search_term TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	return &DB{db}, nil
}

// SaveToken stores the bearer token, replacing any previous one.
func (db *DB) SaveToken(token string) error {
	_, err := db.Exec(
		`INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		tokenKey, token, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// LoadToken returns the persisted bearer token, or "" when logged out.
func (db *DB) LoadToken() (string, error) {
	var token string
	err := db.QueryRow(`SELECT value FROM credentials WHERE name = ?`, tokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	return token, nil
}

// ClearToken removes the persisted bearer token. Clearing an absent token is
// not an error.
func (db *DB) ClearToken() error {
	if _, err := db.Exec(`DELETE FROM credentials WHERE name = ?`, tokenKey); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}

// SaveSearch remembers the last search term used on a screen.
func (db *DB) SaveSearch(route, term string) error {
	_, err := db.Exec(
		`INSERT INTO screen_prefs (route, search_term, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(route) DO UPDATE SET search_term = excluded.search_term, updated_at = excluded.updated_at`,
		route, term, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving search term: %w", err)
	}
	return nil
}

// LoadSearch returns the last search term used on a screen, or "".
func (db *DB) LoadSearch(route string) (string, error) {
	var term string
	err := db.QueryRow(`SELECT search_term FROM screen_prefs WHERE route = ?`, route).Scan(&term)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading search term: %w", err)
	}
	return term, nil
}
