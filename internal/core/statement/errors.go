package statement

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidPatternSet is returned when a generator definition is built
	// with no patterns.
	ErrInvalidPatternSet = errors.New("invalid pattern set")

	// ErrDocumentMutationFailed marks every failure of the document store to
	// apply a statement edit. The document is left unchanged.
	ErrDocumentMutationFailed = errors.New("document mutation failed")

	// ErrInvalidTypeDescriptor is returned by ParseTypeDescriptor for text
	// that is not a Java type.
	ErrInvalidTypeDescriptor = errors.New("invalid type descriptor")
)
