package secondary

import (
	"context"

	"github.com/example/mapgen/internal/core/statement"
)

// MethodSource defines the secondary port for reading interface declarations.
type MethodSource interface {
	// LoadInterface parses the first interface declared in the source file.
	LoadInterface(ctx context.Context, path string) (*InterfaceRecord, error)
}

// InterfaceRecord represents a parsed interface declaration.
type InterfaceRecord struct {
	Path          string
	Package       string
	Name          string
	QualifiedName string
	Imports       []string
	Methods       []MethodRecord
}

// MethodRecord represents one abstract method of an interface.
type MethodRecord struct {
	Name        string
	ReturnType  string
	Annotations []string // simple names, without '@'
	Line        int
}

// TypeUniverseProvider defines the secondary port for building the set of
// types visible from a source file.
type TypeUniverseProvider interface {
	// UniverseFor returns the universe seen by sourcePath. An empty path
	// yields the universe of built-in types only.
	UniverseFor(ctx context.Context, sourcePath string) (statement.TypeUniverse, error)
}
