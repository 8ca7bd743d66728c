package secondary

import "context"

// Selector defines the secondary port for asking the user to pick one option.
// ChooseOne blocks until the user answers, dismisses the prompt or ctx ends.
type Selector interface {
	ChooseOne(ctx context.Context, prompt string, options []string) (Choice, error)
}

// Choice is the answer to a selection. Index is meaningful only when
// Cancelled is false.
type Choice struct {
	Index     int
	Cancelled bool
}

// Navigator defines the secondary port for editor navigation after a
// statement has been produced.
type Navigator interface {
	// PlaceCaret moves the caret to loc.
	PlaceCaret(ctx context.Context, loc Location) error

	// Reformat re-indents the element starting at offset around.
	Reformat(ctx context.Context, path string, around int) error
}
