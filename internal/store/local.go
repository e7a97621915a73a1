// Package store keeps the build ledger: a local SQLite history of every
// packaging and publish attempt.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"autousb/internal/logging"
)

// LocalStore is the SQLite-backed ledger.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore opens (creating if needed) the ledger at path.
func NewLocalStore(path string) (*LocalStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	store := &LocalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.StoreDebug("Ledger open at %s", path)
	return store, nil
}

// initialize creates the required tables and applies column migrations.
func (s *LocalStore) initialize() error {
	buildsTable := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		backend TEXT NOT NULL,
		requested TEXT NOT NULL,
		destination TEXT NOT NULL DEFAULT '',
		tool TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at);
	`

	publishesTable := `
	CREATE TABLE IF NOT EXISTS publishes (
		id TEXT PRIMARY KEY,
		volume TEXT NOT NULL,
		executable TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		copied INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_publishes_created ON publishes(created_at);
	`

	for _, table := range []string{buildsTable, publishesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return RunMigrations(s.db)
}

// Path returns the database file location.
func (s *LocalStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}
