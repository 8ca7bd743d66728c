package selection

import (
	"context"
	"strings"
	"sync"

	"github.com/example/mapgen/internal/ports/secondary"
)

// MemoSelector remembers answers so the same question with the same options
// is asked once. Cancellations are not remembered.
type MemoSelector struct {
	inner secondary.Selector

	mu      sync.Mutex
	answers map[string]secondary.Choice
}

// NewMemoSelector wraps inner.
func NewMemoSelector(inner secondary.Selector) *MemoSelector {
	return &MemoSelector{inner: inner, answers: make(map[string]secondary.Choice)}
}

// ChooseOne implements secondary.Selector.
func (s *MemoSelector) ChooseOne(ctx context.Context, prompt string, options []string) (secondary.Choice, error) {
	key := prompt + "\x00" + strings.Join(options, "\x00")

	s.mu.Lock()
	choice, ok := s.answers[key]
	s.mu.Unlock()
	if ok {
		return choice, nil
	}

	choice, err := s.inner.ChooseOne(ctx, prompt, options)
	if err != nil || choice.Cancelled {
		return choice, err
	}
	s.mu.Lock()
	s.answers[key] = choice
	s.mu.Unlock()
	return choice, nil
}
