// Package statement contains the pure business logic for statement generation:
// operation kinds, name-pattern classification, result-type inference and the
// per-kind element templates.
// This is part of the Functional Core - no I/O, only pure functions.
package statement

import "github.com/cockroachdb/errors"

// OperationKind is the coarse category of a mapped statement.
type OperationKind string

const (
	KindSelect OperationKind = "select"
	KindInsert OperationKind = "insert"
	KindUpdate OperationKind = "update"
	KindDelete OperationKind = "delete"
)

// builtinOrder is the fixed enumeration order used for classification and
// for presenting candidates. It decides ties deterministically.
var builtinOrder = [...]OperationKind{KindUpdate, KindSelect, KindDelete, KindInsert}

// Kinds returns all operation kinds in classification order.
func Kinds() []OperationKind {
	return append([]OperationKind(nil), builtinOrder[:]...)
}

// Tag returns the mapper XML element name for the kind.
func (k OperationKind) Tag() string {
	return string(k)
}

// Valid reports whether k is one of the four known kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case KindSelect, KindInsert, KindUpdate, KindDelete:
		return true
	}
	return false
}

// ParseKind converts an element tag or user input into an OperationKind.
func ParseKind(s string) (OperationKind, error) {
	k := OperationKind(lower(s))
	if !k.Valid() {
		return "", errors.Newf("unknown statement kind %q (want select, insert, update or delete)", s)
	}
	return k, nil
}
