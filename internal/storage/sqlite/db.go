// Package sqlite persists player research profiles using SQLite.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/emberhollow/arcanum/internal/log"
	"github.com/emberhollow/arcanum/internal/research"
)

//go:embed schema.sql
var schema string

// DB wraps the SQLite connection and owns its lifecycle.
type DB struct {
	conn *sql.DB
}

// NewDB opens (or creates) the database at dbPath and applies the
// schema. The parent directory is created with 0700 permissions.
func NewDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	log.Debug(log.CatStorage, "database opened", "path", dbPath)
	return &DB{conn: conn}, nil
}

// NewMemoryDB opens an in-memory database with the schema applied.
// Intended for tests.
func NewMemoryDB() (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Profiles returns the profile repository backed by this database.
func (db *DB) Profiles() research.ProfileRepository {
	return newProfileRepository(db.conn)
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
