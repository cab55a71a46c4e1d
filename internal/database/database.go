// Package database provides SQLite storage for listings.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/bryan-buckman/corvettetrader/internal/model"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
	path string // set for read-only databases, checked before each read
}

// Ensure DB implements Store interface.
var _ Store = (*DB)(nil)

// New opens or creates an SQLite database at the given path.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps ":memory:" databases shared across queries.
	conn.SetMaxOpenConns(1)
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenReadOnly opens an existing SQLite database without creating or
// migrating it. A missing file is reported by Listings, so a source that
// appears later is picked up on the next read.
func OpenReadOnly(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DatabaseType returns the database backend name.
func (db *DB) DatabaseType() string {
	return "SQLite"
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		price REAL NOT NULL DEFAULT 0,
		generation TEXT DEFAULT '',
		part_type TEXT DEFAULT '',
		city TEXT DEFAULT '',
		province TEXT DEFAULT '',
		image TEXT DEFAULT '',
		contact TEXT DEFAULT '',
		posted TEXT
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Listings returns all listings in insertion order.
func (db *DB) Listings(ctx context.Context) ([]model.Listing, error) {
	if db.path != "" {
		if _, err := os.Stat(db.path); err != nil {
			return nil, err
		}
	}
	rows, err := db.conn.QueryContext(ctx, "SELECT "+listingColumns+" FROM listings ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}
