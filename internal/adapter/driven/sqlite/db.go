// Package sqlite implements the ActionJournal port on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// journalPragmas are applied to every journal connection. The history command
// may read the file while a running attendant appends to it.
const journalPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"

// DB is an open, migrated journal. It holds a single connection: the
// attendant appends one row per dispatch from one goroutine.
type DB struct {
	conn          *sql.DB
	path          string
	schemaVersion uint
}

// Open opens the journal at path, creating the file and its directory if
// needed, and applies pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	return open(ctx, fmt.Sprintf("file:%s?%s", path, journalPragmas), path)
}

func open(ctx context.Context, dsn, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping journal %s: %w", path, err)
	}

	version, err := migrateUp(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &DB{conn: conn, path: path, schemaVersion: version}, nil
}

// Path returns the journal file path.
func (db *DB) Path() string {
	return db.path
}

// SchemaVersion returns the migration version the journal is at.
func (db *DB) SchemaVersion() uint {
	return db.schemaVersion
}

// Close closes the journal connection.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("close journal %s: %w", db.path, err)
	}
	return nil
}
