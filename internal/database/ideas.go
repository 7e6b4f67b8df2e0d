package database

import (
	"database/sql"
	"fmt"
)

const ideaColumns = `id, client_id, title, narrative, product_tie_in, cta, score, source, icp_id, created_at`

// InsertIdea stores a new idea. ID, client and source are filled in when empty.
func (db *DB) InsertIdea(idea *GeneratedIdea) error {
	if idea.ID == "" {
		idea.ID = newID()
	}
	idea.ClientID = ClientOrDefault(idea.ClientID)
	if idea.Source == "" {
		idea.Source = SourceManual
	}

	var score *int
	if idea.Score != nil {
		v := idea.Score.Value
		score = &v
	}

	_, err := db.conn.Exec(
		`INSERT INTO ideas (id, client_id, title, narrative, product_tie_in, cta, score, source, icp_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.ID, idea.ClientID, idea.Title, idea.Narrative, idea.ProductTieIn, idea.CTA,
		score, string(idea.Source), idea.ICPID,
	)
	return err
}

// GetIdea returns an idea by id, or nil.
func (db *DB) GetIdea(id string) (*GeneratedIdea, error) {
	row := db.conn.QueryRow(`SELECT `+ideaColumns+` FROM ideas WHERE id = ?`, id)
	idea, err := scanIdea(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return idea, nil
}

// GetIdeasForClient returns all ideas of a client, newest first.
func (db *DB) GetIdeasForClient(clientID string) ([]GeneratedIdea, error) {
	rows, err := db.conn.Query(
		`SELECT `+ideaColumns+` FROM ideas WHERE client_id = ? ORDER BY created_at DESC, rowid DESC`,
		ClientOrDefault(clientID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ideas []GeneratedIdea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}
	return ideas, rows.Err()
}

// UpdateIdea writes edited text fields of an idea.
func (db *DB) UpdateIdea(idea *GeneratedIdea) error {
	result, err := db.conn.Exec(
		`UPDATE ideas SET title = ?, narrative = ?, product_tie_in = ?, cta = ? WHERE id = ?`,
		idea.Title, idea.Narrative, idea.ProductTieIn, idea.CTA, idea.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, "idea", idea.ID)
}

// UpdateIdeaScore sets or, with nil, clears the score of an idea.
func (db *DB) UpdateIdeaScore(id string, score *IdeaScore) error {
	var value *int
	if score != nil {
		v := score.Value
		value = &v
	}
	result, err := db.conn.Exec(`UPDATE ideas SET score = ? WHERE id = ?`, value, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "idea", id)
}

// DeleteIdea removes an idea.
func (db *DB) DeleteIdea(id string) error {
	_, err := db.conn.Exec(`DELETE FROM ideas WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdea(row rowScanner) (*GeneratedIdea, error) {
	var idea GeneratedIdea
	var score *int
	var source string
	if err := row.Scan(&idea.ID, &idea.ClientID, &idea.Title, &idea.Narrative, &idea.ProductTieIn,
		&idea.CTA, &score, &source, &idea.ICPID, &idea.CreatedAt); err != nil {
		return nil, err
	}
	idea.Source = IdeaSource(source)
	if score != nil {
		s, err := NewIdeaScore(*score)
		if err != nil {
			return nil, err
		}
		idea.Score = &s
	}
	return &idea, nil
}

func expectOneRow(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", entity, id)
	}
	return nil
}
