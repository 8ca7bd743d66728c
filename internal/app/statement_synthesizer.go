package app

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/example/mapgen/internal/core/generation"
	"github.com/example/mapgen/internal/core/statement"
	"github.com/example/mapgen/internal/ports/secondary"
)

// StatementSynthesizer creates the statement element for a method.
type StatementSynthesizer struct {
	opts statement.TemplateOptions
}

// NewStatementSynthesizer creates a StatementSynthesizer.
func NewStatementSynthesizer(opts statement.TemplateOptions) *StatementSynthesizer {
	return &StatementSynthesizer{opts: opts}
}

// Synthesize returns the statement for method in doc, creating it when the
// document has none with the method's name. created reports whether the
// document was modified.
func (s *StatementSynthesizer) Synthesize(
	ctx context.Context,
	doc secondary.MappingDocument,
	def statement.GeneratorDefinition,
	method statement.MethodSignature,
	universe statement.TypeUniverse,
) (secondary.StatementElement, bool, error) {
	existing, err := doc.FindElementByID(ctx, method.Name)
	if err != nil {
		return secondary.StatementElement{}, false, errors.Wrapf(err, "failed to read %s", doc.Path())
	}
	if existing != nil {
		return *existing, false, nil
	}

	guard := generation.CanSynthesize(generation.SynthesisContext{
		DeclaringType: method.DeclaringTypeID,
		DocumentPath:  doc.Path(),
		Namespace:     doc.Namespace(),
	})
	if !guard.Allowed {
		return secondary.StatementElement{}, false, guard.Error()
	}

	spec := statement.BuildElement(def, method, statement.NewResultTypeResolver(universe), s.opts)
	res, err := doc.AppendElement(ctx, spec)
	if err != nil {
		if !errors.Is(err, statement.ErrDocumentMutationFailed) {
			err = errors.Mark(err, statement.ErrDocumentMutationFailed)
		}
		return secondary.StatementElement{}, false, errors.Wrapf(err, "failed to append %s to %s", spec.ID, doc.Path())
	}
	return res.Element, res.Created, nil
}
