// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import "context"

// GenerationService defines the primary port for statement generation.
type GenerationService interface {
	// Classify returns the candidate generators for a method name in
	// registry order.
	Classify(ctx context.Context, methodName string) ([]*Generator, error)

	// ResolveMappers returns the documents bound to a declaring type,
	// ordered by canonical path.
	ResolveMappers(ctx context.Context, declaringType string) ([]*MapperDocument, error)

	// Generate runs one generation request to completion.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// GenerateMissing generates statements for every method of an interface
	// source file that has none.
	GenerateMissing(ctx context.Context, req GenerateMissingRequest) (*GenerateMissingResponse, error)

	// ListGenerations lists recorded generation requests, newest first.
	ListGenerations(ctx context.Context, filters GenerationFilters) ([]*Generation, error)
}

// Method identifies the method a statement is generated for.
type Method struct {
	Name          string
	DeclaringType string // fully qualified interface name
	ReturnType    string // Java type text, e.g. "List<User>"; empty means void
}

// GenerateRequest contains parameters for generating one statement.
type GenerateRequest struct {
	Method     Method
	SourcePath string // optional; enables import-aware result types
}

// GenerateResponse contains the result of a generation request.
type GenerateResponse struct {
	RequestID    string
	Method       string
	Outcome      string // generated, existing, no_mapper_found or cancelled
	Kind         string
	DocumentPath string
	Statement    *Statement
}

// GenerateMissingRequest contains parameters for generating a whole interface.
type GenerateMissingRequest struct {
	SourcePath string
}

// GenerateMissingResponse contains the per-method results.
type GenerateMissingResponse struct {
	Interface string
	Results   []*GenerateResponse
	Skipped   []SkippedMethod
	Cancelled bool
}

// SkippedMethod is a method GenerateMissing did not generate for.
type SkippedMethod struct {
	Name   string
	Reason string
}

// Statement represents a statement element at the port boundary.
type Statement struct {
	ID       string
	Kind     string
	Body     string
	Location Location
}

// Location points inside a mapping document. Line and Column are 1-based.
type Location struct {
	Path   string
	Offset int
	Line   int
	Column int
}

// Generator represents a statement generator at the port boundary.
type Generator struct {
	ID          string
	Kind        string
	DisplayText string
	Patterns    []string
}

// MapperDocument represents a candidate mapping document.
// Duplicates lists ids declared more than once; MyBatis rejects such files.
type MapperDocument struct {
	Path         string
	Namespace    string
	StatementIDs []string
	Duplicates   []string
}

// Generation represents a recorded generation request.
type Generation struct {
	ID            string
	Method        string
	DeclaringType string
	Kind          string
	DocumentPath  string
	Outcome       string
	CreatedAt     string
}

// GenerationFilters contains filter options for listing generations.
type GenerationFilters struct {
	DeclaringType string
	Outcome       string
	Limit         int
}
