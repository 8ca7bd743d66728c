package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/mapgen/internal/ports/secondary"
)

// GenerationLogRepository implements secondary.GenerationLog with SQLite.
type GenerationLogRepository struct {
	db *sql.DB
}

// NewGenerationLogRepository creates a new SQLite generation log repository.
func NewGenerationLogRepository(db *sql.DB) *GenerationLogRepository {
	return &GenerationLogRepository{db: db}
}

// Record persists a finished generation request.
func (r *GenerationLogRepository) Record(ctx context.Context, rec *secondary.GenerationRecord) error {
	var kind, docPath sql.NullString
	if rec.Kind != "" {
		kind = sql.NullString{String: rec.Kind, Valid: true}
	}
	if rec.DocumentPath != "" {
		docPath = sql.NullString{String: rec.DocumentPath, Valid: true}
	}

	var err error
	if rec.CreatedAt == "" {
		_, err = r.db.ExecContext(ctx,
			"INSERT INTO statement_generations (id, method, declaring_type, kind, document_path, outcome) VALUES (?, ?, ?, ?, ?, ?)",
			rec.ID, rec.Method, rec.DeclaringType, kind, docPath, rec.Outcome,
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			"INSERT INTO statement_generations (id, method, declaring_type, kind, document_path, outcome, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			rec.ID, rec.Method, rec.DeclaringType, kind, docPath, rec.Outcome, rec.CreatedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// List retrieves generations matching the filters, newest first.
func (r *GenerationLogRepository) List(ctx context.Context, filters secondary.GenerationFilters) ([]*secondary.GenerationRecord, error) {
	query := "SELECT id, method, declaring_type, kind, document_path, outcome, created_at FROM statement_generations"
	var (
		where []string
		args  []any
	)
	if filters.DeclaringType != "" {
		where = append(where, "declaring_type = ?")
		args = append(args, filters.DeclaringType)
	}
	if filters.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, filters.Outcome)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var records []*secondary.GenerationRecord
	for rows.Next() {
		var (
			kind      sql.NullString
			docPath   sql.NullString
			createdAt sql.NullString
		)
		record := &secondary.GenerationRecord{}
		if err := rows.Scan(&record.ID, &record.Method, &record.DeclaringType, &kind, &docPath, &record.Outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		record.Kind = kind.String
		record.DocumentPath = docPath.String
		record.CreatedAt = createdAt.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return records, nil
}
