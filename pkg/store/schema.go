package store

import (
	"database/sql"
	"fmt"
)

// Schema for the employee balance store. The balance table holds exactly one
// row; pending_requests preserves insertion order via the rowid-backed
// position column.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS balance (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    total_days INTEGER NOT NULL CHECK (total_days >= 0),
    used_days INTEGER NOT NULL CHECK (used_days >= 0)
);

CREATE TABLE IF NOT EXISTS pending_requests (
    position INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    number_of_days INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

func createSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
