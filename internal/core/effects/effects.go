// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string // "debug", "info", "warn" or "error"
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// PersistEffect represents a database persistence operation.
type PersistEffect struct {
	Entity    string // e.g., "generation", "mapper_document"
	Operation string // e.g., "create", "upsert", "delete"
	Data      any    // The entity data
}

func (e PersistEffect) EffectType() string { return "persist" }

// CaretEffect moves the editor caret to a position inside a mapping document.
type CaretEffect struct {
	Path   string
	Offset int
	Line   int // 1-based
	Column int // 1-based
}

func (e CaretEffect) EffectType() string { return "caret" }

// ReformatEffect re-indents the element that starts at Offset in the
// document at Path.
type ReformatEffect struct {
	Path   string
	Offset int
}

func (e ReformatEffect) EffectType() string { return "reformat" }
