package app

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/mapgen/internal/core/generation"
	"github.com/example/mapgen/internal/core/statement"
)

// generationRequest carries one request through the state machine.
type generationRequest struct {
	id     string
	method statement.MethodSignature
	state  generation.State
	logger *zap.SugaredLogger
}

func newGenerationRequest(method statement.MethodSignature, logger *zap.SugaredLogger) *generationRequest {
	id := uuid.NewString()
	return &generationRequest{
		id:     id,
		method: method,
		state:  generation.StateStart,
		logger: logger.With("request_id", id, "method", method.Name, "type", method.DeclaringTypeID),
	}
}

func (r *generationRequest) advance(to generation.State) error {
	next, err := generation.Transition(r.state, to)
	if err != nil {
		r.logger.Errorw("illegal state transition", "from", r.state, "to", to)
		return err
	}
	r.logger.Debugw("state transition", "from", r.state, "state", next)
	r.state = next
	if next.Terminal() {
		r.logger.Debugw("request finished", "state", next)
	}
	return nil
}

// finish moves the request into the terminal state for outcome.
func (r *generationRequest) finish(outcome generation.Outcome) error {
	return r.advance(outcome.State())
}
