package secondary

import "context"

// GenerationLog defines the secondary port for the generation history.
type GenerationLog interface {
	// Record persists a finished generation request.
	Record(ctx context.Context, rec *GenerationRecord) error

	// List retrieves generations matching the filters, newest first.
	List(ctx context.Context, filters GenerationFilters) ([]*GenerationRecord, error)
}

// GenerationRecord represents a generation request as stored in persistence.
type GenerationRecord struct {
	ID            string // request id
	Method        string
	DeclaringType string
	Kind          string // empty unless a statement was produced
	DocumentPath  string
	Outcome       string
	CreatedAt     string
}

// GenerationFilters contains filter options for querying generations.
type GenerationFilters struct {
	DeclaringType string
	Outcome       string
	Limit         int
}
