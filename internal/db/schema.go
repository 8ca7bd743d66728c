package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests use it
// via GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so a
// repository that references a missing column fails immediately with
// "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Mapper documents (namespace index)
CREATE TABLE IF NOT EXISTS mapper_documents (
	path TEXT PRIMARY KEY,
	namespace TEXT NOT NULL,
	statement_ids TEXT NOT NULL DEFAULT '',
	mod_time TEXT,
	size INTEGER NOT NULL DEFAULT 0,
	indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_mapper_documents_namespace ON mapper_documents(namespace);

-- Index metadata (scan fingerprint of the last full rebuild)
CREATE TABLE IF NOT EXISTS index_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

-- Statement generations (history)
CREATE TABLE IF NOT EXISTS statement_generations (
	id TEXT PRIMARY KEY,
	method TEXT NOT NULL,
	declaring_type TEXT NOT NULL,
	kind TEXT,
	document_path TEXT,
	outcome TEXT NOT NULL CHECK(outcome IN ('generated', 'existing', 'no_mapper_found', 'cancelled')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_statement_generations_type ON statement_generations(declaring_type);
`

// InitSchema creates the schema on a fresh database and migrates an
// existing one.
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}
	if tableCount > 0 {
		return RunMigrations(db)
	}

	// Completely fresh install - create modern schema directly and mark
	// every migration as applied
	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
