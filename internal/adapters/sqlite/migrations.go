package sqlite

import (
	"database/sql"
	"fmt"
)

// schema lists the journal schema steps. Step i brings the database to
// user_version i+1; steps are only ever appended.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS operation_history (
		id TEXT PRIMARY KEY,
		operation TEXT NOT NULL,
		from_id INTEGER NOT NULL DEFAULT 0,
		to_id INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		warnings TEXT NOT NULL DEFAULT '[]',
		started_at TEXT NOT NULL,
		duration_ns INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_operation_history_started_at ON operation_history(started_at);
	CREATE INDEX IF NOT EXISTS idx_operation_history_operation ON operation_history(operation);
	CREATE INDEX IF NOT EXISTS idx_operation_history_status ON operation_history(status);`,
}

// SchemaVersion is the user_version of a fully migrated journal.
var SchemaVersion = len(schema)

// migrate runs the schema steps the database has not seen yet, each in
// its own transaction together with the user_version bump.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > len(schema) {
		return fmt.Errorf("journal schema version %d is newer than this build (%d)", current, len(schema))
	}

	for v := current; v < len(schema); v++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(schema[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("schema step %d: %w", v+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("schema step %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("schema step %d: %w", v+1, err)
		}
	}
	return nil
}
