package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// GetStats returns aggregate counts across all clients.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		dst   *int
		query string
	}{
		{&s.Clients, "SELECT COUNT(*) FROM product_contexts"},
		{&s.ICPs, "SELECT COUNT(*) FROM icp_scripts"},
		{&s.Authors, "SELECT COUNT(*) FROM authors"},
		{&s.Stories, "SELECT COUNT(*) FROM success_stories"},
		{&s.Ideas, "SELECT COUNT(*) FROM ideas"},
		{&s.Scored, "SELECT COUNT(*) FROM ideas WHERE score IS NOT NULL"},
		{&s.Contents, "SELECT COUNT(*) FROM contents"},
		{&s.Drafts, "SELECT COUNT(*) FROM drafts"},
		{&s.Triggers, "SELECT COUNT(*) FROM trigger_candidates"},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dst); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func newID() string {
	return uuid.NewString()
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
