package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the schema. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS cases (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		unit        TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'open'
		            CHECK(status IN ('open','reported')),
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS case_messages (
		id          TEXT PRIMARY KEY,
		case_id     TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		role        TEXT NOT NULL CHECK(role IN ('technician','assistant','system')),
		content     TEXT NOT NULL,
		source      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		UNIQUE(case_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_case_messages_case ON case_messages(case_id, seq)`,
	`CREATE TABLE IF NOT EXISTS case_metadata (
		case_id     TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		key         TEXT NOT NULL,
		value       TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (case_id, key)
	)`,
}
