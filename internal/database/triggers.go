package database

import "database/sql"

// InsertTriggerCandidate stores a feed entry. Returns 0 if the URL is
// already known.
func (db *DB) InsertTriggerCandidate(url, title string, summary, source, publishedDate *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO trigger_candidates (url, title, summary, source, published_date) VALUES (?, ?, ?, ?, ?)`,
		url, title, summary, source, publishedDate,
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil || n == 0 {
		return 0, err
	}
	return result.LastInsertId()
}

// GetTriggerCandidate returns a candidate by id, or nil.
func (db *DB) GetTriggerCandidate(id int64) (*TriggerCandidate, error) {
	row := db.conn.QueryRow(
		`SELECT id, url, title, summary, source, published_date, collected_at FROM trigger_candidates WHERE id = ?`, id,
	)
	c, err := scanTrigger(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetRecentTriggerCandidates returns the most recently published candidates.
func (db *DB) GetRecentTriggerCandidates(limit int) ([]TriggerCandidate, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, url, title, summary, source, published_date, collected_at FROM trigger_candidates
		ORDER BY COALESCE(published_date, collected_at) DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TriggerCandidate
	for rows.Next() {
		c, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanTrigger(row rowScanner) (*TriggerCandidate, error) {
	var c TriggerCandidate
	if err := row.Scan(&c.ID, &c.URL, &c.Title, &c.Summary, &c.Source, &c.PublishedDate, &c.CollectedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertTriggerTriage stores or replaces the triage of a trigger for an ICP.
func (db *DB) InsertTriggerTriage(t *TriggerTriage) error {
	_, err := db.conn.Exec(
		`INSERT INTO trigger_triage (trigger_id, icp_id, verdict, angle, reason, fit_score) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(trigger_id, icp_id) DO UPDATE SET verdict = excluded.verdict, angle = excluded.angle,
			reason = excluded.reason, fit_score = excluded.fit_score, triaged_at = datetime('now')`,
		t.TriggerID, t.ICPID, t.Verdict, t.Angle, t.Reason, t.FitScore,
	)
	return err
}

// GetTriggerTriage returns the triage of a trigger for an ICP, or nil.
func (db *DB) GetTriggerTriage(triggerID int64, icpID string) (*TriggerTriage, error) {
	var t TriggerTriage
	err := db.conn.QueryRow(
		`SELECT trigger_id, icp_id, verdict, angle, reason, fit_score, triaged_at FROM trigger_triage
		WHERE trigger_id = ? AND icp_id = ?`, triggerID, icpID,
	).Scan(&t.TriggerID, &t.ICPID, &t.Verdict, &t.Angle, &t.Reason, &t.FitScore, &t.TriagedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetUntriagedTriggers returns recent candidates not yet triaged for icpID.
func (db *DB) GetUntriagedTriggers(icpID string, limit int) ([]TriggerCandidate, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT c.id, c.url, c.title, c.summary, c.source, c.published_date, c.collected_at
		FROM trigger_candidates c
		LEFT JOIN trigger_triage t ON t.trigger_id = c.id AND t.icp_id = ?
		WHERE t.trigger_id IS NULL
		ORDER BY COALESCE(c.published_date, c.collected_at) DESC, c.id DESC LIMIT ?`, icpID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TriggerCandidate
	for rows.Next() {
		c, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetRankedTriggers returns relevant triggers for icpID, best fit first.
func (db *DB) GetRankedTriggers(icpID string, limit int) ([]RankedTrigger, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT c.id, c.url, c.title, c.summary, c.source, c.published_date, c.collected_at,
			t.trigger_id, t.icp_id, t.verdict, t.angle, t.reason, t.fit_score, t.triaged_at
		FROM trigger_triage t
		JOIN trigger_candidates c ON c.id = t.trigger_id
		WHERE t.icp_id = ? AND t.verdict = 'relevant'
		ORDER BY t.fit_score DESC, COALESCE(c.published_date, c.collected_at) DESC LIMIT ?`, icpID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankedTrigger
	for rows.Next() {
		var r RankedTrigger
		c, t := &r.TriggerCandidate, &r.Triage
		if err := rows.Scan(&c.ID, &c.URL, &c.Title, &c.Summary, &c.Source, &c.PublishedDate, &c.CollectedAt,
			&t.TriggerID, &t.ICPID, &t.Verdict, &t.Angle, &t.Reason, &t.FitScore, &t.TriagedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
