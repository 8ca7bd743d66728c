// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"

	"github.com/example/mapgen/internal/core/statement"
)

// DocumentStore defines the secondary port for locating mapping documents.
type DocumentStore interface {
	// FindDocumentsByNamespace returns every document whose root namespace
	// equals ns. No match is an empty slice, not an error.
	FindDocumentsByNamespace(ctx context.Context, ns string) ([]MappingDocument, error)
}

// MappingDocument is a mapper XML document borrowed from the store for the
// duration of one request.
type MappingDocument interface {
	// Path returns the canonical path of the document.
	Path() string

	// Namespace returns the root namespace attribute.
	Namespace() string

	// Elements returns the statement elements in document order.
	Elements(ctx context.Context) ([]StatementElement, error)

	// FindElementByID returns the statement with id, or nil when absent.
	FindElementByID(ctx context.Context, id string) (*StatementElement, error)

	// AppendElement adds spec as the last statement of the document in one
	// atomic edit. When a statement with the same id already exists it is
	// returned with Created == false and the document is left unchanged.
	// Failures are marked with statement.ErrDocumentMutationFailed.
	AppendElement(ctx context.Context, spec statement.ElementSpec) (AppendResult, error)
}

// StatementElement is one statement child of a mapping document.
type StatementElement struct {
	ID       string
	Kind     statement.OperationKind
	Body     string
	Location Location
}

// Location points inside a document. Line and Column are 1-based.
type Location struct {
	Path   string
	Offset int
	Line   int
	Column int
}

// AppendResult is the outcome of MappingDocument.AppendElement.
type AppendResult struct {
	Element StatementElement
	Created bool
}

// DocumentScanner defines the secondary port for discovering mapper files.
type DocumentScanner interface {
	// Scan parses every mapper document under the configured roots.
	Scan(ctx context.Context) ([]*MapperDocumentRecord, error)

	// ScanFile parses a single file. A file that is not a mapper document
	// yields nil and no error.
	ScanFile(ctx context.Context, path string) (*MapperDocumentRecord, error)
	// Fingerprint summarizes every candidate file under the roots without
	// parsing. It changes whenever a file is added, removed or rewritten.
	Fingerprint(ctx context.Context) (string, error)
}

// MapperIndex defines the secondary port for the namespace index.
type MapperIndex interface {
	// Upsert inserts or replaces the record for rec.Path.
	Upsert(ctx context.Context, rec *MapperDocumentRecord) error

	// FindByNamespace returns records with the namespace, ordered by path.
	FindByNamespace(ctx context.Context, ns string) ([]*MapperDocumentRecord, error)

	// Remove deletes the record for path. Removing an unknown path is not an error.
	Remove(ctx context.Context, path string) error

	// List returns every record ordered by path.
	List(ctx context.Context) ([]*MapperDocumentRecord, error)

	// Prune removes every record whose path is not in keep and returns how
	// many were removed.
	Prune(ctx context.Context, keep []string) (int, error)
	// Stamp returns the scanner fingerprint recorded by the last complete
	// rebuild, or "" when there is none.
	Stamp(ctx context.Context) (string, error)
	// SetStamp records the fingerprint a complete rebuild was taken at.
	SetStamp(ctx context.Context, fingerprint string) error
}

// MapperDocumentRecord represents an indexed mapper document.
type MapperDocumentRecord struct {
	Path         string
	Namespace    string
	StatementIDs []string
	ModTime      string
	Size         int64
	IndexedAt    string
}
