package generation

import (
	"github.com/example/mapgen/internal/core/effects"
)

// CompletionInput contains what the planner needs after a request finished.
// All values are pre-fetched by the caller - no I/O in the planner.
type CompletionInput struct {
	RequestID     string
	Method        string
	DeclaringType string
	Kind          string
	Outcome       Outcome
	DocumentPath  string
	Offset        int
	Line          int
	Column        int
}

// LogEntry is the data carried by the generation PersistEffect.
type LogEntry struct {
	RequestID     string
	Method        string
	DeclaringType string
	Kind          string
	DocumentPath  string
	Outcome       Outcome
}

// PlanCompletion returns the effects that finish a request.
// A new statement is reformatted before the caret is placed on it; an
// existing one is only navigated to. Outcomes without a statement produce
// no navigation at all.
func PlanCompletion(in CompletionInput) []effects.Effect {
	var effs []effects.Effect

	if in.Outcome.HasStatement() {
		if in.Outcome == OutcomeGenerated {
			effs = append(effs, effects.ReformatEffect{Path: in.DocumentPath, Offset: in.Offset})
		}
		effs = append(effs, caret(in))
	}

	effs = append(effs, effects.PersistEffect{
		Entity:    "generation",
		Operation: "create",
		Data: LogEntry{
			RequestID:     in.RequestID,
			Method:        in.Method,
			DeclaringType: in.DeclaringType,
			Kind:          in.Kind,
			DocumentPath:  in.DocumentPath,
			Outcome:       in.Outcome,
		},
	})

	effs = append(effs, effects.LogEffect{
		Level:   logLevel(in.Outcome),
		Message: logMessage(in.Outcome),
		Fields: map[string]any{
			"request_id": in.RequestID,
			"method":     in.Method,
			"type":       in.DeclaringType,
			"document":   in.DocumentPath,
			"outcome":    string(in.Outcome),
		},
	})
	return effs
}

func caret(in CompletionInput) effects.CaretEffect {
	return effects.CaretEffect{
		Path:   in.DocumentPath,
		Offset: in.Offset,
		Line:   in.Line,
		Column: in.Column,
	}
}

func logLevel(o Outcome) string {
	if o == OutcomeNoMapperFound {
		return "warn"
	}
	return "info"
}

func logMessage(o Outcome) string {
	switch o {
	case OutcomeGenerated:
		return "statement generated"
	case OutcomeExisting:
		return "statement already present"
	case OutcomeNoMapperFound:
		return "no mapper document found"
	case OutcomeCancelled:
		return "generation cancelled"
	}
	return "generation finished"
}
