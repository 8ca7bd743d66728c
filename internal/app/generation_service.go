package app

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/example/mapgen/internal/core/generation"
	"github.com/example/mapgen/internal/core/statement"
	"github.com/example/mapgen/internal/ctxutil"
	"github.com/example/mapgen/internal/ports/primary"
	"github.com/example/mapgen/internal/ports/secondary"
)

const documentPrompt = "Choose target mapper xml to generate"

func generatorPrompt(method string) string {
	return "[ Statement type for method: " + method + "]"
}

// annotationsWithStatement are the MyBatis annotations that already
// provide a method's SQL.
var annotationsWithStatement = map[string]bool{
	"Select":         true,
	"Insert":         true,
	"Update":         true,
	"Delete":         true,
	"SelectProvider": true,
	"InsertProvider": true,
	"UpdateProvider": true,
	"DeleteProvider": true,
}

// GenerationServiceImpl implements the GenerationService interface.
type GenerationServiceImpl struct {
	registry    *statement.Registry
	resolver    *MapperResolver
	synthesizer *StatementSynthesizer
	selector    secondary.Selector
	universes   secondary.TypeUniverseProvider
	methods     secondary.MethodSource
	history     secondary.GenerationLog
	executor    EffectExecutor
	logger      *zap.SugaredLogger
}

// NewGenerationService creates a new GenerationService with injected dependencies.
// universes, methods and history may be nil; the features that need them
// are then unavailable.
func NewGenerationService(
	registry *statement.Registry,
	resolver *MapperResolver,
	synthesizer *StatementSynthesizer,
	selector secondary.Selector,
	universes secondary.TypeUniverseProvider,
	methods secondary.MethodSource,
	history secondary.GenerationLog,
	executor EffectExecutor,
	logger *zap.SugaredLogger,
) *GenerationServiceImpl {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &GenerationServiceImpl{
		registry:    registry,
		resolver:    resolver,
		synthesizer: synthesizer,
		selector:    selector,
		universes:   universes,
		methods:     methods,
		history:     history,
		executor:    executor,
		logger:      logger,
	}
}

// Classify returns the candidate generators for a method name.
func (s *GenerationServiceImpl) Classify(ctx context.Context, methodName string) ([]*primary.Generator, error) {
	defs := s.registry.Classify(statement.MethodSignature{Name: methodName})
	out := make([]*primary.Generator, len(defs))
	for i, d := range defs {
		out[i] = &primary.Generator{
			ID:          d.ID(),
			Kind:        string(d.Kind()),
			DisplayText: d.DisplayText(),
			Patterns:    d.Patterns(),
		}
	}
	return out, nil
}

// ResolveMappers returns the documents bound to a declaring type.
func (s *GenerationServiceImpl) ResolveMappers(ctx context.Context, declaringType string) ([]*primary.MapperDocument, error) {
	docs, err := s.resolver.Resolve(ctx, declaringType)
	if err != nil {
		return nil, err
	}
	out := make([]*primary.MapperDocument, 0, len(docs))
	for _, d := range docs {
		elems, err := d.Elements(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read statements of %s", d.Path())
		}
		doc := &primary.MapperDocument{Path: d.Path(), Namespace: d.Namespace(), StatementIDs: make([]string, len(elems))}
		seen := make(map[string]int, len(elems))
		for i, e := range elems {
			doc.StatementIDs[i] = e.ID
			seen[e.ID]++
			if seen[e.ID] == 2 {
				doc.Duplicates = append(doc.Duplicates, e.ID)
			}
		}
		out = append(out, doc)
	}
	return out, nil
}

// Generate runs one generation request.
func (s *GenerationServiceImpl) Generate(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
	req, err := s.fillFromSource(ctx, req)
	if err != nil {
		return nil, err
	}

	// 1. Guard check
	guardCtx := generation.GenerateContext{
		MethodName:    req.Method.Name,
		DeclaringType: req.Method.DeclaringType,
	}
	if result := generation.CanGenerate(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	// 2. Snapshot the method
	returnType := statement.Void()
	if text := strings.TrimSpace(req.Method.ReturnType); text != "" {
		parsed, err := statement.ParseTypeDescriptor(text)
		if err != nil {
			return nil, errors.WithHint(err, "pass the return type as written in the interface, e.g. List<User>")
		}
		returnType = parsed
	}
	method := statement.MethodSignature{
		Name:            req.Method.Name,
		DeclaringTypeID: req.Method.DeclaringType,
		ReturnType:      returnType,
	}

	universe, err := s.universeFor(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}

	// 3. Run the state machine
	return s.run(ctx, method, universe)
}

// fillFromSource completes a request that names a method but not its
// interface from the interface source file.
func (s *GenerationServiceImpl) fillFromSource(ctx context.Context, req primary.GenerateRequest) (primary.GenerateRequest, error) {
	if req.Method.DeclaringType != "" || req.SourcePath == "" || s.methods == nil {
		return req, nil
	}
	iface, err := s.methods.LoadInterface(ctx, req.SourcePath)
	if err != nil {
		return req, errors.Wrapf(err, "failed to load interface from %s", req.SourcePath)
	}
	if iface == nil {
		return req, nil
	}
	req.Method.DeclaringType = iface.QualifiedName
	if req.Method.ReturnType == "" {
		for _, m := range iface.Methods {
			if m.Name == req.Method.Name {
				req.Method.ReturnType = m.ReturnType
				break
			}
		}
	}
	return req, nil
}

// GenerateMissing generates statements for every method of an interface
// that has neither a statement nor a statement annotation.
func (s *GenerationServiceImpl) GenerateMissing(ctx context.Context, req primary.GenerateMissingRequest) (*primary.GenerateMissingResponse, error) {
	if s.methods == nil {
		return nil, errors.New("no method source configured")
	}
	iface, err := s.methods.LoadInterface(ctx, req.SourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load interface from %s", req.SourcePath)
	}
	universe, err := s.universeFor(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}

	docs, err := s.resolver.Resolve(ctx, iface.QualifiedName)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]string)
	for _, d := range docs {
		elems, err := d.Elements(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read statements of %s", d.Path())
		}
		for _, e := range elems {
			if _, ok := existing[e.ID]; !ok {
				existing[e.ID] = d.Path()
			}
		}
	}

	resp := &primary.GenerateMissingResponse{Interface: iface.QualifiedName}
	seen := make(map[string]bool)
	for _, m := range iface.Methods {
		if reason := skipReason(m, existing, seen); reason != "" {
			resp.Skipped = append(resp.Skipped, primary.SkippedMethod{Name: m.Name, Reason: reason})
			continue
		}
		seen[m.Name] = true

		returnType, err := statement.ParseTypeDescriptor(m.ReturnType)
		if err != nil {
			resp.Skipped = append(resp.Skipped, primary.SkippedMethod{Name: m.Name, Reason: "unparseable return type " + m.ReturnType})
			continue
		}
		method := statement.MethodSignature{
			Name:            m.Name,
			DeclaringTypeID: iface.QualifiedName,
			ReturnType:      returnType,
		}
		result, err := s.run(ctx, method, universe)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to generate %s", m.Name)
		}
		resp.Results = append(resp.Results, result)
		if result.Outcome == string(generation.OutcomeCancelled) {
			resp.Cancelled = true
			break
		}
	}
	return resp, nil
}

func skipReason(m secondary.MethodRecord, existing map[string]string, seen map[string]bool) string {
	for _, a := range m.Annotations {
		if annotationsWithStatement[a] {
			return "annotated with @" + a
		}
	}
	if path, ok := existing[m.Name]; ok {
		return "statement exists in " + path
	}
	if seen[m.Name] {
		return "overload of an earlier method"
	}
	return ""
}

// ListGenerations lists recorded generation requests.
func (s *GenerationServiceImpl) ListGenerations(ctx context.Context, filters primary.GenerationFilters) ([]*primary.Generation, error) {
	if s.history == nil {
		return nil, nil
	}
	records, err := s.history.List(ctx, secondary.GenerationFilters{
		DeclaringType: filters.DeclaringType,
		Outcome:       filters.Outcome,
		Limit:         filters.Limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list generations")
	}
	out := make([]*primary.Generation, len(records))
	for i, r := range records {
		out[i] = &primary.Generation{
			ID:            r.ID,
			Method:        r.Method,
			DeclaringType: r.DeclaringType,
			Kind:          r.Kind,
			DocumentPath:  r.DocumentPath,
			Outcome:       r.Outcome,
			CreatedAt:     r.CreatedAt,
		}
	}
	return out, nil
}

func (s *GenerationServiceImpl) universeFor(ctx context.Context, sourcePath string) (statement.TypeUniverse, error) {
	if s.universes == nil {
		return nil, nil
	}
	u, err := s.universes.UniverseFor(ctx, sourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load types visible from %s", sourcePath)
	}
	return u, nil
}

// run drives one request from START to DONE or CANCELLED.
func (s *GenerationServiceImpl) run(ctx context.Context, method statement.MethodSignature, universe statement.TypeUniverse) (*primary.GenerateResponse, error) {
	r := newGenerationRequest(method, s.logger)
	ctx = ctxutil.WithRequestID(ctx, r.id)

	// 1. Classify
	defs := s.registry.Classify(method)
	if err := r.advance(generation.StateClassified); err != nil {
		return nil, err
	}

	// 2. Resolve documents
	docs, err := s.resolver.Resolve(ctx, method.DeclaringTypeID)
	if err != nil {
		return nil, err
	}
	if err := r.advance(generation.StateMapperResolved); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		if err := r.finish(generation.OutcomeNoMapperFound); err != nil {
			return nil, err
		}
		return s.complete(ctx, r, generation.OutcomeNoMapperFound, "", "", nil), nil
	}

	// 3. Disambiguate
	def, doc := defs[0], docs[0]
	if len(defs) > 1 || len(docs) > 1 {
		if err := r.advance(generation.StateDisambiguating); err != nil {
			return nil, err
		}
		if len(defs) > 1 {
			options := make([]string, len(defs))
			for i, d := range defs {
				options[i] = d.DisplayText()
			}
			idx, cancelled, err := s.choose(ctx, generatorPrompt(method.Name), options)
			if err != nil {
				return nil, err
			}
			if cancelled {
				return s.cancel(ctx, r)
			}
			def = defs[idx]
		}
		if len(docs) > 1 {
			options := make([]string, len(docs))
			for i, d := range docs {
				options[i] = d.Path()
			}
			idx, cancelled, err := s.choose(ctx, documentPrompt, options)
			if err != nil {
				return nil, err
			}
			if cancelled {
				return s.cancel(ctx, r)
			}
			doc = docs[idx]
		}
	}

	// 4. Synthesize
	elem, created, err := s.synthesizer.Synthesize(ctx, doc, def, method, universe)
	if err != nil {
		return nil, err
	}
	if err := r.advance(generation.StateSynthesized); err != nil {
		return nil, err
	}

	outcome := generation.OutcomeExisting
	if created {
		outcome = generation.OutcomeGenerated
	}
	if err := r.finish(outcome); err != nil {
		return nil, err
	}
	return s.complete(ctx, r, outcome, string(elem.Kind), doc.Path(), &elem), nil
}

// choose asks the selector. A dismissed prompt or an ended context is a
// cancellation, not an error.
func (s *GenerationServiceImpl) choose(ctx context.Context, prompt string, options []string) (int, bool, error) {
	if ctx.Err() != nil {
		return 0, true, nil
	}
	if s.selector == nil {
		return 0, false, errors.WithHint(errors.New("selection required but no selector configured"), "preselect the answer with --kind or --mapper")
	}
	choice, err := s.selector.ChooseOne(ctx, prompt, options)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return 0, true, nil
		}
		return 0, false, errors.Wrap(err, "selection failed")
	}
	if choice.Cancelled {
		return 0, true, nil
	}
	if choice.Index < 0 || choice.Index >= len(options) {
		return 0, false, errors.Newf("selector returned index %d for %d options", choice.Index, len(options))
	}
	return choice.Index, false, nil
}

func (s *GenerationServiceImpl) cancel(ctx context.Context, r *generationRequest) (*primary.GenerateResponse, error) {
	if err := r.finish(generation.OutcomeCancelled); err != nil {
		return nil, err
	}
	return s.complete(ctx, r, generation.OutcomeCancelled, "", "", nil), nil
}

// complete runs the completion plan and builds the response. Completion
// effects run even when ctx was cancelled; their failures are logged since
// the document edit has already happened.
func (s *GenerationServiceImpl) complete(ctx context.Context, r *generationRequest, outcome generation.Outcome, kind, path string, elem *secondary.StatementElement) *primary.GenerateResponse {
	in := generation.CompletionInput{
		RequestID:     r.id,
		Method:        r.method.Name,
		DeclaringType: r.method.DeclaringTypeID,
		Kind:          kind,
		Outcome:       outcome,
		DocumentPath:  path,
	}
	if elem != nil {
		in.Offset = elem.Location.Offset
		in.Line = elem.Location.Line
		in.Column = elem.Location.Column
	}
	if s.executor != nil {
		if err := s.executor.Execute(context.WithoutCancel(ctx), generation.PlanCompletion(in)); err != nil {
			r.logger.Warnw("completion failed", "error", err)
		}
	}

	resp := &primary.GenerateResponse{
		RequestID:    r.id,
		Method:       r.method.Name,
		Outcome:      string(outcome),
		Kind:         kind,
		DocumentPath: path,
	}
	if outcome.HasStatement() && elem != nil {
		resp.Statement = &primary.Statement{
			ID:   elem.ID,
			Kind: string(elem.Kind),
			Body: elem.Body,
			Location: primary.Location{
				Path:   elem.Location.Path,
				Offset: elem.Location.Offset,
				Line:   elem.Location.Line,
				Column: elem.Location.Column,
			},
		}
	}
	return resp
}
