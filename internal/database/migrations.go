package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS product_contexts (
    id TEXT PRIMARY KEY,
    client_id TEXT UNIQUE NOT NULL,
    data TEXT NOT NULL,
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS icp_scripts (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    name TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS authors (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    name TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS success_stories (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    title TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ideas (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    title TEXT NOT NULL,
    narrative TEXT NOT NULL,
    product_tie_in TEXT NOT NULL,
    cta TEXT NOT NULL,
    score INTEGER CHECK(score IS NULL OR score BETWEEN 0 AND 3),
    source TEXT NOT NULL CHECK(source IN ('manual', 'generated')),
    icp_id TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contents (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    title TEXT NOT NULL,
    prompt TEXT,
    output TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS drafts (
    key TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    saved_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_icp_scripts_client ON icp_scripts(client_id);
CREATE INDEX IF NOT EXISTS idx_authors_client ON authors(client_id);
CREATE INDEX IF NOT EXISTS idx_success_stories_client ON success_stories(client_id);
CREATE INDEX IF NOT EXISTS idx_ideas_client ON ideas(client_id);
CREATE INDEX IF NOT EXISTS idx_contents_client ON contents(client_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "trigger candidates",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS trigger_candidates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    summary TEXT,
    source TEXT,
    published_date TEXT,
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_trigger_candidates_published ON trigger_candidates(published_date);
`)
			return err
		},
	},
	{
		Version:     3,
		Description: "trigger triage per ICP",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS trigger_triage (
    trigger_id INTEGER NOT NULL REFERENCES trigger_candidates(id) ON DELETE CASCADE,
    icp_id TEXT NOT NULL,
    verdict TEXT NOT NULL CHECK(verdict IN ('relevant', 'skip')),
    angle TEXT,
    reason TEXT,
    fit_score INTEGER NOT NULL DEFAULT 0,
    triaged_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (trigger_id, icp_id)
);

CREATE INDEX IF NOT EXISTS idx_trigger_triage_icp ON trigger_triage(icp_id, fit_score);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
