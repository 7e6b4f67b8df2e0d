package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SaveProductContext replaces the whole product context of a client. The
// existing id is kept so references stay valid across saves.
func (db *DB) SaveProductContext(pc *ProductContext) error {
	pc.ClientID = ClientOrDefault(pc.ClientID)

	if pc.ID == "" {
		existing, err := db.GetProductContext(pc.ClientID)
		if err != nil {
			return err
		}
		if existing != nil {
			pc.ID = existing.ID
		} else {
			pc.ID = newID()
		}
	}
	assignProductIDs(pc)

	data, err := encodeJSON(pc)
	if err != nil {
		return fmt.Errorf("encoding product context: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO product_contexts (id, client_id, data, updated_at) VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(client_id) DO UPDATE SET id = excluded.id, data = excluded.data, updated_at = excluded.updated_at`,
		pc.ID, pc.ClientID, data,
	)
	return err
}

// GetProductContext returns the product context of a client, or nil.
func (db *DB) GetProductContext(clientID string) (*ProductContext, error) {
	row := db.conn.QueryRow(
		`SELECT id, client_id, data, updated_at FROM product_contexts WHERE client_id = ?`,
		ClientOrDefault(clientID),
	)

	var id, client, data string
	var updatedAt *string
	if err := row.Scan(&id, &client, &data, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var pc ProductContext
	if err := json.Unmarshal([]byte(data), &pc); err != nil {
		return nil, fmt.Errorf("decoding product context: %w", err)
	}
	pc.ID = id
	pc.ClientID = client
	pc.UpdatedAt = updatedAt
	return &pc, nil
}

// DeleteProductContext removes the product context of a client.
func (db *DB) DeleteProductContext(clientID string) error {
	_, err := db.conn.Exec(`DELETE FROM product_contexts WHERE client_id = ?`, ClientOrDefault(clientID))
	return err
}

// assignProductIDs gives every feature, use case and differentiator a stable
// id so business context items can point at them.
func assignProductIDs(pc *ProductContext) {
	for i := range pc.Features {
		if pc.Features[i].ID == "" {
			pc.Features[i].ID = newID()
		}
	}
	for i := range pc.UseCases {
		if pc.UseCases[i].ID == "" {
			pc.UseCases[i].ID = newID()
		}
	}
	for i := range pc.Differentiators {
		if pc.Differentiators[i].ID == "" {
			pc.Differentiators[i].ID = newID()
		}
	}
}
