// Package generation contains the pure business logic for a single statement
// generation request: its state machine, guards and completion planning.
// This is part of the Functional Core - no I/O, only pure functions.
package generation

import "github.com/cockroachdb/errors"

// State is a point in the life of a generation request.
type State string

const (
	StateStart          State = "START"
	StateClassified     State = "CLASSIFIED"
	StateMapperResolved State = "MAPPER_RESOLVED"
	StateDisambiguating State = "DISAMBIGUATING"
	StateSynthesized    State = "SYNTHESIZED"
	StateDone           State = "DONE"
	StateCancelled      State = "CANCELLED"
)

// ErrIllegalTransition is returned when the orchestrator attempts a move
// the state machine does not allow. It always indicates a programming error.
var ErrIllegalTransition = errors.New("illegal generation state transition")

var transitions = map[State][]State{
	StateStart:          {StateClassified},
	StateClassified:     {StateMapperResolved},
	StateMapperResolved: {StateDisambiguating, StateSynthesized, StateDone},
	StateDisambiguating: {StateSynthesized, StateCancelled},
	StateSynthesized:    {StateDone},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new state.
// MAPPER_RESOLVED -> DONE is only taken when no document was found.
func Transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, errors.Wrapf(ErrIllegalTransition, "%s -> %s", from, to)
	}
	return to, nil
}
