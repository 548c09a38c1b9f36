package db

import (
	"database/sql"
	"fmt"
)

// Migrate applies the migrations the store has not seen yet and records
// the schema version in PRAGMA user_version. Each migration runs in its own
// transaction.
func Migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this binary (%d)", version, len(migrations))
	}
	for i := version; i < len(migrations); i++ {
		if err := applyMigration(db, i); err != nil {
			return err
		}
	}
	return nil
}

// SchemaVersion is the version a fully migrated store reports.
func SchemaVersion() int { return len(migrations) }

func applyMigration(db *sql.DB, i int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", i, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(migrations[i]); err != nil {
		return fmt.Errorf("migration %d: %w", i, err)
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
		return fmt.Errorf("migration %d: recording version: %w", i, err)
	}
	return tx.Commit()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id             TEXT PRIMARY KEY,
		parent_id      TEXT REFERENCES nodes(id) ON DELETE CASCADE,
		kind           TEXT NOT NULL CHECK(kind IN ('file_plan','category','folder','record')),
		name           TEXT NOT NULL,
		identifier     TEXT NOT NULL DEFAULT '',
		declared       INTEGER NOT NULL DEFAULT 0,
		content        TEXT NOT NULL DEFAULT '',
		cut_off        INTEGER NOT NULL DEFAULT 0,
		cut_off_date   TEXT,
		closed         INTEGER NOT NULL DEFAULT 0,
		transferred    INTEGER NOT NULL DEFAULT 0,
		transferred_at TEXT,
		accessioned    INTEGER NOT NULL DEFAULT 0,
		ghosted        INTEGER NOT NULL DEFAULT 0,
		destroyed_at   TEXT,
		vital          INTEGER NOT NULL DEFAULT 0,
		review_as_of   TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_identifier ON nodes(identifier) WHERE identifier != ''`,

	`CREATE TABLE IF NOT EXISTS node_properties (
		node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		name    TEXT NOT NULL,
		value   TEXT NOT NULL,
		PRIMARY KEY (node_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS disposition_schedules (
		id                       TEXT PRIMARY KEY,
		category_id              TEXT NOT NULL UNIQUE REFERENCES nodes(id) ON DELETE CASCADE,
		instructions             TEXT NOT NULL DEFAULT '',
		authority                TEXT NOT NULL DEFAULT '',
		record_level_disposition INTEGER NOT NULL DEFAULT 0,
		created_at               TEXT NOT NULL,
		updated_at               TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS disposition_action_definitions (
		id                               TEXT PRIMARY KEY,
		schedule_id                      TEXT NOT NULL REFERENCES disposition_schedules(id) ON DELETE CASCADE,
		position                         INTEGER NOT NULL,
		name                             TEXT NOT NULL,
		description                      TEXT NOT NULL DEFAULT '',
		period                           TEXT,
		period_property                  TEXT,
		events                           TEXT NOT NULL DEFAULT '[]',
		eligible_on_first_complete_event INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_definitions_schedule ON disposition_action_definitions(schedule_id, position)`,

	// History rows keep definition_id after the step is removed, so no FK.
	`CREATE TABLE IF NOT EXISTS disposition_actions (
		id            TEXT PRIMARY KEY,
		node_id       TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		definition_id TEXT NOT NULL,
		name          TEXT NOT NULL,
		as_of         TEXT,
		started_at    TEXT,
		started_by    TEXT,
		completed_at  TEXT,
		completed_by  TEXT,
		is_current    INTEGER NOT NULL DEFAULT 0,
		seq           INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_actions_current ON disposition_actions(node_id) WHERE is_current = 1`,
	`CREATE INDEX IF NOT EXISTS idx_actions_definition ON disposition_actions(definition_id) WHERE is_current = 1`,
	`CREATE INDEX IF NOT EXISTS idx_actions_history ON disposition_actions(node_id, seq)`,

	`CREATE TABLE IF NOT EXISTS event_completions (
		action_id    TEXT NOT NULL REFERENCES disposition_actions(id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		event_name   TEXT NOT NULL,
		complete     INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT,
		completed_by TEXT,
		PRIMARY KEY (action_id, event_name)
	)`,

	`CREATE TABLE IF NOT EXISTS transfers (
		id         TEXT PRIMARY KEY,
		accession  INTEGER NOT NULL DEFAULT 0,
		action_id  TEXT NOT NULL,
		created_at TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS transfer_items (
		transfer_id TEXT NOT NULL REFERENCES transfers(id) ON DELETE CASCADE,
		node_id     TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		PRIMARY KEY (transfer_id, node_id)
	)`,

	`CREATE TABLE IF NOT EXISTS holds (
		id           TEXT PRIMARY KEY,
		file_plan_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		description  TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		UNIQUE (file_plan_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS freeze_edges (
		hold_id    TEXT NOT NULL REFERENCES holds(id) ON DELETE CASCADE,
		node_id    TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (hold_id, node_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_freeze_edges_node ON freeze_edges(node_id)`,

	// A row is an explicit override; no row means inherit.
	`CREATE TABLE IF NOT EXISTS vital_record_definitions (
		node_id       TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		enabled       INTEGER NOT NULL DEFAULT 0,
		review_period TEXT NOT NULL DEFAULT 'none|0',
		updated_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS search_projections (
		node_id                               TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		disposition_action_name               TEXT,
		disposition_action_as_of              TEXT,
		disposition_events_eligible           INTEGER NOT NULL DEFAULT 0,
		disposition_events                    TEXT NOT NULL DEFAULT '[]',
		disposition_period                    TEXT,
		disposition_period_expression         TEXT,
		has_disposition_schedule              INTEGER NOT NULL DEFAULT 0,
		disposition_instructions              TEXT,
		disposition_authority                 TEXT,
		vital_record_review_period            TEXT,
		vital_record_review_period_expression TEXT,
		hold_reasons                          TEXT NOT NULL DEFAULT '[]',
		frozen                                INTEGER NOT NULL DEFAULT 0,
		updated_at                            TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS identifier_sequences (
		scope    TEXT PRIMARY KEY,
		next_seq INTEGER NOT NULL
	)`,
}
