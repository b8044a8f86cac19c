// Package store keeps tool documents and custom model endpoints in an
// embedded SQLite file (modernc.org/sqlite, no cgo).
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: record not found")

// DB wraps the SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	store := &DB{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS tools (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			schema         TEXT NOT NULL,
			custom_headers TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS custom_models (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			model_id       TEXT NOT NULL,
			base_url       TEXT NOT NULL,
			api_key        TEXT NOT NULL DEFAULT '',
			context_length INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL
		);
	`)
	return err
}
