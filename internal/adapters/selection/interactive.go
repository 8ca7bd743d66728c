// Package selection contains implementations of secondary.Selector.
package selection

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/example/mapgen/internal/ports/secondary"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// InteractiveSelector asks on the terminal with an arrow-key menu.
type InteractiveSelector struct {
	maxHeight int
}

// NewInteractiveSelector creates a new InteractiveSelector.
func NewInteractiveSelector() *InteractiveSelector {
	return &InteractiveSelector{maxHeight: 10}
}

type menuResult struct {
	answer      string
	interrupted bool
	err         error
}

// ChooseOne implements secondary.Selector. Ctrl+C and a cancelled context
// both report Cancelled.
func (s *InteractiveSelector) ChooseOne(ctx context.Context, prompt string, options []string) (secondary.Choice, error) {
	if len(options) == 0 {
		return secondary.Choice{}, errors.New("nothing to choose from")
	}

	done := make(chan menuResult, 1)
	go func() {
		var res menuResult
		res.answer, res.err = pterm.DefaultInteractiveSelect.
			WithDefaultText(prompt).
			WithOptions(options).
			WithMaxHeight(s.maxHeight).
			WithOnInterruptFunc(func() { res.interrupted = true }).
			Show()
		done <- res
	}()

	select {
	case <-ctx.Done():
		return secondary.Choice{Cancelled: true}, nil
	case res := <-done:
		if res.interrupted {
			return secondary.Choice{Cancelled: true}, nil
		}
		if res.err != nil {
			return secondary.Choice{}, errors.Wrap(res.err, "selection failed")
		}
		for i, o := range options {
			if o == res.answer {
				return secondary.Choice{Index: i}, nil
			}
		}
		return secondary.Choice{Cancelled: true}, nil
	}
}
