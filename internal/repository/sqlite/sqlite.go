// Package sqlite implements repository.LocalStorage on an embedded SQLite file.
//
// WHY SQLITE?
// The portal needs one small durable table and nothing else. modernc.org/sqlite
// is a pure Go build of SQLite, so the binary needs no C toolchain and no
// database server. ":memory:" gives tests a throwaway store.
package sqlite

import (
	"database/sql"
	"fmt"

	// registers the "sqlite" driver with database/sql
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath and runs
// migrations.
//
// dbPath examples:
//   - "data/portal.db" → file-based, survives restarts
//   - ":memory:"       → in-memory, used by tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: SQLite has a single writer anyway, and an in-memory
	// database exists per connection, so a pool would see empty databases.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := NewFromConn(conn)
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// NewFromConn wraps an already-open pool without running migrations.
// Tests use it with go-sqlmock to exercise failure paths.
func NewFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			visitor_id TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (visitor_id, key)
		);
		CREATE INDEX IF NOT EXISTS idx_local_storage_updated_at ON local_storage(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("creating local_storage table: %w", err)
	}
	return nil
}
