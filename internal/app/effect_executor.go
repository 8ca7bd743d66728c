// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/example/mapgen/internal/core/effects"
	"github.com/example/mapgen/internal/core/generation"
	"github.com/example/mapgen/internal/ctxutil"
	"github.com/example/mapgen/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
type DefaultEffectExecutor struct {
	navigator secondary.Navigator
	history   secondary.GenerationLog
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
// A nil navigator or history turns the matching effects into no-ops.
func NewEffectExecutor(navigator secondary.Navigator, history secondary.GenerationLog, logger *zap.SugaredLogger) *DefaultEffectExecutor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DefaultEffectExecutor{
		navigator: navigator,
		history:   history,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return errors.Wrapf(err, "failed to execute %s effect", eff.EffectType())
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.ReformatEffect:
		if e.navigator == nil {
			return nil
		}
		return e.navigator.Reformat(ctx, typed.Path, typed.Offset)
	case effects.CaretEffect:
		if e.navigator == nil {
			return nil
		}
		return e.navigator.PlaceCaret(ctx, secondary.Location{
			Path:   typed.Path,
			Offset: typed.Offset,
			Line:   typed.Line,
			Column: typed.Column,
		})
	case effects.PersistEffect:
		return e.executePersist(ctx, typed)
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil
	default:
		return errors.Newf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executePersist(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Entity {
	case "generation":
		return e.executeGenerationOp(ctx, eff)
	default:
		return errors.Newf("unknown entity: %s", eff.Entity)
	}
}

func (e *DefaultEffectExecutor) executeGenerationOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case "create":
		entry, ok := eff.Data.(generation.LogEntry)
		if !ok {
			return errors.Newf("invalid generation data type: %T", eff.Data)
		}
		if e.history == nil {
			return nil
		}
		return e.history.Record(ctx, &secondary.GenerationRecord{
			ID:            entry.RequestID,
			Method:        entry.Method,
			DeclaringType: entry.DeclaringType,
			Kind:          entry.Kind,
			DocumentPath:  entry.DocumentPath,
			Outcome:       string(entry.Outcome),
			CreatedAt:     e.now().UTC().Format(time.RFC3339),
		})
	default:
		return errors.Newf("unknown generation operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	kv := make([]any, 0, 2*len(eff.Fields)+2)
	if id := ctxutil.RequestIDFromContext(ctx); id != "" {
		if _, ok := eff.Fields["request_id"]; !ok {
			kv = append(kv, "request_id", id)
		}
	}
	for k, v := range eff.Fields {
		kv = append(kv, k, v)
	}
	switch eff.Level {
	case "debug":
		e.logger.Debugw(eff.Message, kv...)
	case "warn":
		e.logger.Warnw(eff.Message, kv...)
	case "error":
		e.logger.Errorw(eff.Message, kv...)
	default:
		e.logger.Infow(eff.Message, kv...)
	}
}
