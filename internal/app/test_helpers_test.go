package app

import (
	"context"
	"errors"

	"github.com/example/mapgen/internal/core/statement"
	"github.com/example/mapgen/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

var (
	_ secondary.DocumentStore        = (*mockDocumentStore)(nil)
	_ secondary.MappingDocument      = (*mockDocument)(nil)
	_ secondary.Selector             = (*mockSelector)(nil)
	_ secondary.Navigator            = (*mockNavigator)(nil)
	_ secondary.GenerationLog        = (*mockGenerationLog)(nil)
	_ secondary.MethodSource         = (*mockMethodSource)(nil)
	_ secondary.TypeUniverseProvider = (*mockUniverseProvider)(nil)
	_ secondary.DocumentScanner      = (*mockScanner)(nil)
	_ secondary.MapperIndex          = (*mockMapperIndex)(nil)
)

// mockDocument implements secondary.MappingDocument in memory.
type mockDocument struct {
	path      string
	namespace string
	elements  []secondary.StatementElement
	appended  []statement.ElementSpec
	findErr   error
	appendErr error
}

func newMockDocument(path, namespace string, ids ...string) *mockDocument {
	d := &mockDocument{path: path, namespace: namespace}
	for _, id := range ids {
		d.elements = append(d.elements, d.elementFor(id, statement.KindSelect, " "))
	}
	return d
}

func (d *mockDocument) elementFor(id string, kind statement.OperationKind, body string) secondary.StatementElement {
	n := len(d.elements)
	return secondary.StatementElement{
		ID:   id,
		Kind: kind,
		Body: body,
		Location: secondary.Location{
			Path:   d.path,
			Offset: 100 + 40*n + 1 + len(kind.Tag()),
			Line:   3 + n,
			Column: 6 + len(kind.Tag()),
		},
	}
}

func (d *mockDocument) Path() string      { return d.path }
func (d *mockDocument) Namespace() string { return d.namespace }

func (d *mockDocument) Elements(ctx context.Context) ([]secondary.StatementElement, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	return append([]secondary.StatementElement(nil), d.elements...), nil
}

func (d *mockDocument) FindElementByID(ctx context.Context, id string) (*secondary.StatementElement, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	for i := range d.elements {
		if d.elements[i].ID == id {
			e := d.elements[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (d *mockDocument) AppendElement(ctx context.Context, spec statement.ElementSpec) (secondary.AppendResult, error) {
	if d.appendErr != nil {
		return secondary.AppendResult{}, d.appendErr
	}
	for _, e := range d.elements {
		if e.ID == spec.ID {
			return secondary.AppendResult{Element: e, Created: false}, nil
		}
	}
	e := d.elementFor(spec.ID, spec.Kind, spec.Body)
	d.elements = append(d.elements, e)
	d.appended = append(d.appended, spec)
	return secondary.AppendResult{Element: e, Created: true}, nil
}

// mockDocumentStore implements secondary.DocumentStore for testing.
type mockDocumentStore struct {
	docs    []*mockDocument
	findErr error
	queries []string
}

func newMockDocumentStore(docs ...*mockDocument) *mockDocumentStore {
	return &mockDocumentStore{docs: docs}
}

func (m *mockDocumentStore) FindDocumentsByNamespace(ctx context.Context, ns string) ([]secondary.MappingDocument, error) {
	m.queries = append(m.queries, ns)
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []secondary.MappingDocument
	for _, d := range m.docs {
		if d.namespace == ns {
			out = append(out, d)
		}
	}
	return out, nil
}

// mockSelector implements secondary.Selector with scripted answers.
type mockSelector struct {
	answers  []secondary.Choice
	err      error
	onChoose func(ctx context.Context) (secondary.Choice, error)
	prompts  []string
	options  [][]string
}

func newMockSelector(answers ...secondary.Choice) *mockSelector {
	return &mockSelector{answers: answers}
}

func (m *mockSelector) ChooseOne(ctx context.Context, prompt string, options []string) (secondary.Choice, error) {
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, append([]string(nil), options...))
	if m.onChoose != nil {
		return m.onChoose(ctx)
	}
	if m.err != nil {
		return secondary.Choice{}, m.err
	}
	if len(m.answers) == 0 {
		return secondary.Choice{}, errors.New("unexpected prompt: " + prompt)
	}
	c := m.answers[0]
	m.answers = m.answers[1:]
	return c, nil
}

// mockNavigator implements secondary.Navigator and records calls in order.
type mockNavigator struct {
	calls     []string
	carets    []secondary.Location
	reformats []int
	caretErr  error
}

func (m *mockNavigator) PlaceCaret(ctx context.Context, loc secondary.Location) error {
	m.calls = append(m.calls, "caret")
	m.carets = append(m.carets, loc)
	return m.caretErr
}

func (m *mockNavigator) Reformat(ctx context.Context, path string, around int) error {
	m.calls = append(m.calls, "reformat")
	m.reformats = append(m.reformats, around)
	return nil
}

// mockGenerationLog implements secondary.GenerationLog for testing.
type mockGenerationLog struct {
	records   []*secondary.GenerationRecord
	recordErr error
	listErr   error
}

func (m *mockGenerationLog) Record(ctx context.Context, rec *secondary.GenerationRecord) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockGenerationLog) List(ctx context.Context, filters secondary.GenerationFilters) ([]*secondary.GenerationRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*secondary.GenerationRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if filters.DeclaringType != "" && r.DeclaringType != filters.DeclaringType {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// mockMethodSource implements secondary.MethodSource for testing.
type mockMethodSource struct {
	iface *secondary.InterfaceRecord
	err   error
}

func (m *mockMethodSource) LoadInterface(ctx context.Context, path string) (*secondary.InterfaceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.iface, nil
}

// mockUniverseProvider implements secondary.TypeUniverseProvider over a map.
type mockUniverseProvider struct {
	known map[string]string
	err   error
	paths []string
}

func (m *mockUniverseProvider) UniverseFor(ctx context.Context, sourcePath string) (statement.TypeUniverse, error) {
	m.paths = append(m.paths, sourcePath)
	if m.err != nil {
		return nil, m.err
	}
	return statement.TypeUniverseFunc(func(name string) (string, bool) {
		q, ok := m.known[name]
		return q, ok
	}), nil
}

// mockScanner implements secondary.DocumentScanner for testing.
type mockScanner struct {
	records     []*secondary.MapperDocumentRecord
	files       map[string]*secondary.MapperDocumentRecord
	fingerprint string
	scanErr     error
	fileErr     map[string]error
}

func (m *mockScanner) Fingerprint(ctx context.Context) (string, error) {
	return m.fingerprint, nil
}

func (m *mockScanner) Scan(ctx context.Context) ([]*secondary.MapperDocumentRecord, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	return m.records, nil
}

func (m *mockScanner) ScanFile(ctx context.Context, path string) (*secondary.MapperDocumentRecord, error) {
	if err := m.fileErr[path]; err != nil {
		return nil, err
	}
	return m.files[path], nil
}

// mockMapperIndex implements secondary.MapperIndex in memory.
type mockMapperIndex struct {
	records   map[string]*secondary.MapperDocumentRecord
	stamp     string
	upsertErr error
}

func (m *mockMapperIndex) Stamp(ctx context.Context) (string, error) {
	return m.stamp, nil
}

func (m *mockMapperIndex) SetStamp(ctx context.Context, fingerprint string) error {
	m.stamp = fingerprint
	return nil
}

func newMockMapperIndex() *mockMapperIndex {
	return &mockMapperIndex{records: make(map[string]*secondary.MapperDocumentRecord)}
}

func (m *mockMapperIndex) Upsert(ctx context.Context, rec *secondary.MapperDocumentRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.records[rec.Path] = rec
	return nil
}

func (m *mockMapperIndex) FindByNamespace(ctx context.Context, ns string) ([]*secondary.MapperDocumentRecord, error) {
	var out []*secondary.MapperDocumentRecord
	for _, r := range m.records {
		if r.Namespace == ns {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockMapperIndex) Remove(ctx context.Context, path string) error {
	delete(m.records, path)
	return nil
}

func (m *mockMapperIndex) List(ctx context.Context) ([]*secondary.MapperDocumentRecord, error) {
	var out []*secondary.MapperDocumentRecord
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockMapperIndex) Prune(ctx context.Context, keep []string) (int, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[k] = true
	}
	removed := 0
	for p := range m.records {
		if !keepSet[p] {
			delete(m.records, p)
			removed++
		}
	}
	return removed, nil
}
