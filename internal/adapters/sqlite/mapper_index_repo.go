// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/mapgen/internal/ports/secondary"
)

// MapperIndexRepository implements secondary.MapperIndex with SQLite.
type MapperIndexRepository struct {
	db *sql.DB
}

// NewMapperIndexRepository creates a new SQLite mapper index repository.
func NewMapperIndexRepository(db *sql.DB) *MapperIndexRepository {
	return &MapperIndexRepository{db: db}
}

const mapperDocumentColumns = "path, namespace, statement_ids, mod_time, size, indexed_at"

// Upsert inserts or replaces the record for rec.Path.
func (r *MapperIndexRepository) Upsert(ctx context.Context, rec *secondary.MapperDocumentRecord) error {
	var modTime sql.NullString
	if rec.ModTime != "" {
		modTime = sql.NullString{String: rec.ModTime, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mapper_documents (path, namespace, statement_ids, mod_time, size, indexed_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			namespace = excluded.namespace,
			statement_ids = excluded.statement_ids,
			mod_time = excluded.mod_time,
			size = excluded.size,
			indexed_at = CURRENT_TIMESTAMP`,
		rec.Path, rec.Namespace, strings.Join(rec.StatementIDs, ","), modTime, rec.Size,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mapper document: %w", err)
	}
	return nil
}

// FindByNamespace returns records with the namespace, ordered by path.
func (r *MapperIndexRepository) FindByNamespace(ctx context.Context, ns string) ([]*secondary.MapperDocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+mapperDocumentColumns+" FROM mapper_documents WHERE namespace = ? ORDER BY path ASC",
		ns,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mapper documents: %w", err)
	}
	defer rows.Close()
	return scanMapperDocuments(rows)
}

// Remove deletes the record for path.
func (r *MapperIndexRepository) Remove(ctx context.Context, path string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM mapper_documents WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to remove mapper document: %w", err)
	}
	return nil
}

// List returns every record ordered by path.
func (r *MapperIndexRepository) List(ctx context.Context) ([]*secondary.MapperDocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+mapperDocumentColumns+" FROM mapper_documents ORDER BY path ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list mapper documents: %w", err)
	}
	defer rows.Close()
	return scanMapperDocuments(rows)
}

// Prune removes every record whose path is not in keep.
func (r *MapperIndexRepository) Prune(ctx context.Context, keep []string) (int, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, p := range keep {
		keepSet[p] = true
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin prune: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT path FROM mapper_documents")
	if err != nil {
		return 0, fmt.Errorf("failed to list indexed paths: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan indexed path: %w", err)
		}
		if !keepSet[p] {
			stale = append(stale, p)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to iterate indexed paths: %w", err)
	}
	rows.Close()

	for _, p := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM mapper_documents WHERE path = ?", p); err != nil {
			return 0, fmt.Errorf("failed to prune %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return len(stale), nil
}

// Stamp returns the fingerprint recorded by the last full rebuild, or "" if
// there is none.
func (r *MapperIndexRepository) Stamp(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = 'fingerprint'").Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read index stamp: %w", err)
	}
	return value, nil
}

// SetStamp records fingerprint as the state the index was built at.
func (r *MapperIndexRepository) SetStamp(ctx context.Context, fingerprint string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES ('fingerprint', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fingerprint,
	)
	if err != nil {
		return fmt.Errorf("failed to write index stamp: %w", err)
	}
	return nil
}

func scanMapperDocuments(rows *sql.Rows) ([]*secondary.MapperDocumentRecord, error) {
	var records []*secondary.MapperDocumentRecord
	for rows.Next() {
		var (
			ids       string
			modTime   sql.NullString
			indexedAt sql.NullString
		)
		record := &secondary.MapperDocumentRecord{}
		if err := rows.Scan(&record.Path, &record.Namespace, &ids, &modTime, &record.Size, &indexedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mapper document: %w", err)
		}
		if ids != "" {
			record.StatementIDs = strings.Split(ids, ",")
		}
		record.ModTime = modTime.String
		record.IndexedAt = indexedAt.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mapper documents: %w", err)
	}
	return records, nil
}
