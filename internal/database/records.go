package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotOwned is returned when a save targets an id that belongs to another
// client.
var ErrNotOwned = errors.New("record belongs to another client")

// ICP scripts, authors and success stories share one storage shape: a row
// with id, client, display name and the record as a JSON document.

type blobTable struct {
	name     string
	labelCol string
	entity   string
}

var (
	icpTable    = blobTable{name: "icp_scripts", labelCol: "name", entity: "ICP script"}
	authorTable = blobTable{name: "authors", labelCol: "name", entity: "author"}
	storyTable  = blobTable{name: "success_stories", labelCol: "title", entity: "success story"}
)

func (db *DB) upsertBlob(t blobTable, id, clientID, label string, record any) error {
	data, err := encodeJSON(record)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", t.entity, err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, client_id, %s, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET %s = excluded.%s, data = excluded.data
		WHERE %s.client_id = excluded.client_id`,
		t.name, t.labelCol, t.labelCol, t.labelCol, t.name,
	)
	result, err := db.conn.Exec(query, id, clientID, label, data)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("saving %s %s: %w", t.entity, id, ErrNotOwned)
	}
	return nil
}

// getBlob decodes the record with the given id into dst; false when absent.
func (db *DB) getBlob(t blobTable, id string, dst any) (createdAt *string, found bool, err error) {
	row := db.conn.QueryRow(fmt.Sprintf(`SELECT data, created_at FROM %s WHERE id = ?`, t.name), id)
	var data string
	if err := row.Scan(&data, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return nil, false, fmt.Errorf("decoding %s %s: %w", t.entity, id, err)
	}
	return createdAt, true, nil
}

// listBlobs calls decode once per row of a client, newest first.
func (db *DB) listBlobs(t blobTable, clientID string, decode func(data []byte, createdAt *string) error) error {
	rows, err := db.conn.Query(
		fmt.Sprintf(`SELECT data, created_at FROM %s WHERE client_id = ? ORDER BY created_at DESC, rowid DESC`, t.name),
		ClientOrDefault(clientID),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		var createdAt *string
		if err := rows.Scan(&data, &createdAt); err != nil {
			return err
		}
		if err := decode([]byte(data), createdAt); err != nil {
			return fmt.Errorf("decoding %s: %w", t.entity, err)
		}
	}
	return rows.Err()
}

func (db *DB) deleteBlob(t blobTable, id string) error {
	_, err := db.conn.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.name), id)
	return err
}

// SaveICP creates or replaces an ICP story script. Items without an id get
// one; duplicate ids are rejected.
func (db *DB) SaveICP(s *ICPStoryScript) error {
	if s.ID == "" {
		s.ID = newID()
	}
	s.ClientID = ClientOrDefault(s.ClientID)
	for _, t := range NarrativeTypes {
		items := s.Items(t)
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = newID()
			}
		}
	}
	if err := s.Validate(); err != nil {
		return err
	}
	return db.upsertBlob(icpTable, s.ID, s.ClientID, s.Name, s)
}

// GetICP returns an ICP story script by id, or nil.
func (db *DB) GetICP(id string) (*ICPStoryScript, error) {
	var s ICPStoryScript
	createdAt, found, err := db.getBlob(icpTable, id, &s)
	if err != nil || !found {
		return nil, err
	}
	s.CreatedAt = createdAt
	return &s, nil
}

// GetICPsForClient returns all ICP story scripts of a client.
func (db *DB) GetICPsForClient(clientID string) ([]ICPStoryScript, error) {
	var out []ICPStoryScript
	err := db.listBlobs(icpTable, clientID, func(data []byte, createdAt *string) error {
		var s ICPStoryScript
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s.CreatedAt = createdAt
		out = append(out, s)
		return nil
	})
	return out, err
}

// DeleteICP removes an ICP story script.
func (db *DB) DeleteICP(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM trigger_triage WHERE icp_id = ?`, id); err != nil {
		return err
	}
	return db.deleteBlob(icpTable, id)
}

// SaveAuthor creates or replaces an author voice profile.
func (db *DB) SaveAuthor(a *Author) error {
	if a.ID == "" {
		a.ID = newID()
	}
	a.ClientID = ClientOrDefault(a.ClientID)
	for i := range a.Tones {
		if a.Tones[i].ID == "" {
			a.Tones[i].ID = newID()
		}
	}
	for i := range a.Experiences {
		if a.Experiences[i].ID == "" {
			a.Experiences[i].ID = newID()
		}
	}
	return db.upsertBlob(authorTable, a.ID, a.ClientID, a.Name, a)
}

// GetAuthor returns an author by id, or nil.
func (db *DB) GetAuthor(id string) (*Author, error) {
	var a Author
	createdAt, found, err := db.getBlob(authorTable, id, &a)
	if err != nil || !found {
		return nil, err
	}
	a.CreatedAt = createdAt
	return &a, nil
}

// GetAuthorsForClient returns all authors of a client.
func (db *DB) GetAuthorsForClient(clientID string) ([]Author, error) {
	var out []Author
	err := db.listBlobs(authorTable, clientID, func(data []byte, createdAt *string) error {
		var a Author
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		a.CreatedAt = createdAt
		out = append(out, a)
		return nil
	})
	return out, err
}

// DeleteAuthor removes an author.
func (db *DB) DeleteAuthor(id string) error {
	return db.deleteBlob(authorTable, id)
}

// SaveStory creates or replaces a customer success story.
func (db *DB) SaveStory(s *CustomerSuccessStory) error {
	if s.ID == "" {
		s.ID = newID()
	}
	s.ClientID = ClientOrDefault(s.ClientID)
	if s.Title == "" {
		s.Title = "Untitled story"
	}
	return db.upsertBlob(storyTable, s.ID, s.ClientID, s.Title, s)
}

// GetStory returns a success story by id, or nil.
func (db *DB) GetStory(id string) (*CustomerSuccessStory, error) {
	var s CustomerSuccessStory
	createdAt, found, err := db.getBlob(storyTable, id, &s)
	if err != nil || !found {
		return nil, err
	}
	s.CreatedAt = createdAt
	return &s, nil
}

// GetStoriesForClient returns all success stories of a client.
func (db *DB) GetStoriesForClient(clientID string) ([]CustomerSuccessStory, error) {
	var out []CustomerSuccessStory
	err := db.listBlobs(storyTable, clientID, func(data []byte, createdAt *string) error {
		var s CustomerSuccessStory
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s.CreatedAt = createdAt
		out = append(out, s)
		return nil
	})
	return out, err
}

// DeleteStory removes a success story.
func (db *DB) DeleteStory(id string) error {
	return db.deleteBlob(storyTable, id)
}
