package database

import (
	"database/sql"
	"time"
)

// SaveDraft writes a draft snapshot, replacing any previous one for the key.
func (db *DB) SaveDraft(key string, state []byte, savedAt time.Time) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO drafts (key, state, saved_at) VALUES (?, ?, ?)`,
		key, string(state), savedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// LoadDraft returns the draft stored under key, or nil.
func (db *DB) LoadDraft(key string) (*Draft, error) {
	row := db.conn.QueryRow(`SELECT key, state, saved_at FROM drafts WHERE key = ?`, key)
	d, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// DeleteDraft removes the draft stored under key.
func (db *DB) DeleteDraft(key string) error {
	_, err := db.conn.Exec(`DELETE FROM drafts WHERE key = ?`, key)
	return err
}

// ListDrafts returns drafts whose key starts with prefix, newest first.
func (db *DB) ListDrafts(prefix string) ([]Draft, error) {
	rows, err := db.conn.Query(
		`SELECT key, state, saved_at FROM drafts WHERE substr(key, 1, length(?)) = ? ORDER BY saved_at DESC`,
		prefix, prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDraft(row rowScanner) (*Draft, error) {
	var d Draft
	var state, savedAt string
	if err := row.Scan(&d.Key, &state, &savedAt); err != nil {
		return nil, err
	}
	d.State = []byte(state)
	if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		d.SavedAt = t
	}
	return &d, nil
}
