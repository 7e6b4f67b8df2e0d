package database

import "database/sql"

// InsertContent stores a crafted piece of content.
func (db *DB) InsertContent(c *GeneratedContent) error {
	if c.ID == "" {
		c.ID = newID()
	}
	c.ClientID = ClientOrDefault(c.ClientID)
	_, err := db.conn.Exec(
		`INSERT INTO contents (id, client_id, kind, title, prompt, output) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.Kind, c.Title, c.Prompt, c.Output,
	)
	return err
}

// GetContent returns a crafted content by id, or nil.
func (db *DB) GetContent(id string) (*GeneratedContent, error) {
	row := db.conn.QueryRow(
		`SELECT id, client_id, kind, title, COALESCE(prompt, ''), output, created_at FROM contents WHERE id = ?`, id,
	)
	var c GeneratedContent
	if err := row.Scan(&c.ID, &c.ClientID, &c.Kind, &c.Title, &c.Prompt, &c.Output, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetContentsForClient lists crafted contents of a client, newest first,
// without their prompts.
func (db *DB) GetContentsForClient(clientID string, limit int) ([]GeneratedContent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(
		`SELECT id, client_id, kind, title, output, created_at FROM contents
		WHERE client_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		ClientOrDefault(clientID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GeneratedContent
	for rows.Next() {
		var c GeneratedContent
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Kind, &c.Title, &c.Output, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteContent removes a crafted content.
func (db *DB) DeleteContent(id string) error {
	_, err := db.conn.Exec(`DELETE FROM contents WHERE id = ?`, id)
	return err
}
