package selection

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/example/mapgen/internal/ports/secondary"
)

// PresetSelector answers from values given up front, such as command-line
// flags, and defers to a fallback for questions none of them settle. Without
// a fallback an unsettled question is cancelled.
//
// An answer settles a question when it matches exactly one option: by
// case-insensitive equality, as the first word of the option ("delete" picks
// "Delete Statement"), or as a trailing path of the option.
type PresetSelector struct {
	answers  []string
	fallback secondary.Selector
}

// NewPresetSelector creates a new PresetSelector. Empty answers are ignored.
func NewPresetSelector(fallback secondary.Selector, answers ...string) *PresetSelector {
	var kept []string
	for _, a := range answers {
		if a = strings.TrimSpace(a); a != "" {
			kept = append(kept, a)
		}
	}
	return &PresetSelector{answers: kept, fallback: fallback}
}

// ChooseOne implements secondary.Selector.
func (s *PresetSelector) ChooseOne(ctx context.Context, prompt string, options []string) (secondary.Choice, error) {
	for _, answer := range s.answers {
		if i, ok := matchOne(answer, options); ok {
			return secondary.Choice{Index: i}, nil
		}
	}
	if s.fallback == nil {
		return secondary.Choice{Cancelled: true}, nil
	}
	return s.fallback.ChooseOne(ctx, prompt, options)
}

func matchOne(answer string, options []string) (int, bool) {
	found := -1
	for i, o := range options {
		if !matches(answer, o) {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = i
	}
	return found, found >= 0
}

func matches(answer, option string) bool {
	if strings.EqualFold(answer, option) {
		return true
	}
	if first, _, ok := strings.Cut(option, " "); ok && strings.EqualFold(answer, first) {
		return true
	}
	a := filepath.ToSlash(filepath.Clean(answer))
	o := filepath.ToSlash(option)
	if abs, err := filepath.Abs(answer); err == nil && filepath.ToSlash(abs) == o {
		return true
	}
	return strings.HasSuffix(o, "/"+strings.TrimPrefix(a, "./"))
}
