package primary

import "context"

// IndexService defines the primary port for the mapper namespace index.
type IndexService interface {
	// Rebuild rescans every root and replaces the index contents.
	Rebuild(ctx context.Context) (*IndexSummary, error)

	// Refresh re-reads the given files; missing or non-mapper files are
	// dropped from the index.
	Refresh(ctx context.Context, paths []string) (*IndexSummary, error)

	// ListDocuments returns every indexed document ordered by path.
	ListDocuments(ctx context.Context) ([]*MapperDocument, error)
}

// IndexSummary reports what an index operation changed.
type IndexSummary struct {
	Indexed int
	Removed int
}
