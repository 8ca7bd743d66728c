package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database schema migration.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the ordered list of all migrations.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_mapper_documents",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "create_statement_generations",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "create_index_meta",
		Up:      migrationV3,
	},
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return err
	}
	currentVersion, err := CurrentVersion(db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}
		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

// migrationV1 creates the namespace index.
func migrationV1(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS mapper_documents (
			path TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			statement_ids TEXT NOT NULL DEFAULT '',
			mod_time TEXT,
			size INTEGER NOT NULL DEFAULT 0,
			indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create mapper_documents table: %w", err)
	}
	_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_mapper_documents_namespace ON mapper_documents(namespace)")
	return err
}

// migrationV2 adds the generation history.
func migrationV2(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS statement_generations (
			id TEXT PRIMARY KEY,
			method TEXT NOT NULL,
			declaring_type TEXT NOT NULL,
			kind TEXT,
			document_path TEXT,
			outcome TEXT NOT NULL CHECK(outcome IN ('generated', 'existing', 'no_mapper_found', 'cancelled')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create statement_generations table: %w", err)
	}
	_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_statement_generations_type ON statement_generations(declaring_type)")
	return err
}

// migrationV3 records the scan fingerprint the index was built at.
func migrationV3(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create index_meta table: %w", err)
	}
	return nil
}
