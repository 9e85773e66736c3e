// Package store provides SQLite-backed persistence for notes, reminder
// subscriptions, and the record lookup table.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id                 TEXT PRIMARY KEY,
	owner_id           TEXT NOT NULL,
	text               TEXT NOT NULL,
	completed          INTEGER NOT NULL DEFAULT 0,
	public             INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	due_by             DATETIME,
	target_object_type TEXT NOT NULL DEFAULT '',
	target_object_name TEXT NOT NULL DEFAULT '',
	owner_name         TEXT NOT NULL DEFAULT '',
	owner_first_name   TEXT NOT NULL DEFAULT '',
	owner_last_name    TEXT NOT NULL DEFAULT '',
	owner_photo_url    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS reminders (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	note_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, note_id)
);

CREATE TABLE IF NOT EXISTS records (
	id          TEXT PRIMARY KEY,
	object_type TEXT NOT NULL,
	name        TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_records_type_name
	ON records(object_type, name COLLATE NOCASE);
`

// DB wraps a sql.DB with note persistence operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
