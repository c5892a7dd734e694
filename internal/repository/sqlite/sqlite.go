// Package sqlite implements repository.KeyValueStore on top of SQLite.
//
// WHY SQLITE FOR A KEY-VALUE STORE?
// The data set is tiny (a few JSON blobs) but it has to survive restarts and
// writes must be atomic: a crash halfway through writing the technologies blob
// must leave the previous blob intact. A single SQLite table gives us both.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no C compiler needed,
// cross-compilation just works.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB      - a connection pool (NOT a single connection!)
//   - sql.Row     - a single result row
//   - sql.Rows    - multiple result rows (must be closed!)
package sqlite

import (
	"database/sql"
	"fmt"

	// The blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.KeyValueStore.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/tracker.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests; lost on close)
//
// ONE CONNECTION:
// Every new connection to ":memory:" opens a brand new, empty database, and
// SQLite allows only one writer anyway. Capping the pool at one connection
// keeps ":memory:" coherent and serializes writes for file databases too.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	// Ping forces the first real connection so a bad path fails here,
	// not on the first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
//
//	db, err := sqlite.New("data/tracker.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the kv table. CREATE TABLE IF NOT EXISTS is idempotent,
// so this runs on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}

	return nil
}
