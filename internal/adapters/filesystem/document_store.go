package filesystem

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/example/mapgen/internal/core/mapperxml"
	"github.com/example/mapgen/internal/core/statement"
	"github.com/example/mapgen/internal/ports/secondary"
)

// DocumentStore implements secondary.DocumentStore over mapper XML files on
// disk. When an index is configured it is consulted only if its stamp matches
// the current scan fingerprint. Every hit is re-read before use and a stale
// answer falls back to a full scan, which also refreshes the index.
type DocumentStore struct {
	scanner *Scanner
	index   secondary.MapperIndex
	locks   *pathLocks
	logger  *zap.SugaredLogger
}

// NewDocumentStore creates a new DocumentStore. index may be nil.
func NewDocumentStore(scanner *Scanner, index secondary.MapperIndex, logger *zap.SugaredLogger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DocumentStore{
		scanner: scanner,
		index:   index,
		locks:   newPathLocks(),
		logger:  logger,
	}
}

// FindDocumentsByNamespace returns every mapper document whose namespace is ns,
// ordered by canonical path.
func (s *DocumentStore) FindDocumentsByNamespace(ctx context.Context, ns string) ([]secondary.MappingDocument, error) {
	var fingerprint string
	if s.index != nil {
		fp, err := s.scanner.Fingerprint(ctx)
		if err != nil {
			s.logger.Warnw("failed to fingerprint scan roots, scanning instead", "error", err)
		} else {
			fingerprint = fp
			if docs, ok := s.fromIndex(ctx, ns, fp); ok {
				return docs, nil
			}
		}
	}

	records, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan for mapper documents")
	}
	if s.index != nil {
		s.refreshIndex(ctx, records, fingerprint)
	}

	var docs []secondary.MappingDocument
	for _, rec := range records {
		if rec.Namespace == ns {
			docs = append(docs, s.document(rec.Path, rec.Namespace))
		}
	}
	return docs, nil
}

// fromIndex answers from the index. ok is false unless the index was rebuilt
// at the current fingerprint and every entry for ns still matches its file.
func (s *DocumentStore) fromIndex(ctx context.Context, ns, fingerprint string) ([]secondary.MappingDocument, bool) {
	stamp, err := s.index.Stamp(ctx)
	if err != nil {
		s.logger.Warnw("mapper index stamp unreadable, scanning instead", "error", err)
		return nil, false
	}
	if stamp != fingerprint {
		s.logger.Debugw("mapper index out of date", "namespace", ns)
		return nil, false
	}
	records, err := s.index.FindByNamespace(ctx, ns)
	if err != nil {
		s.logger.Warnw("mapper index lookup failed, scanning instead", "namespace", ns, "error", err)
		return nil, false
	}

	docs := make([]secondary.MappingDocument, 0, len(records))
	for _, rec := range records {
		current, err := s.scanner.ScanFile(ctx, rec.Path)
		if err != nil || current == nil || current.Namespace != ns {
			s.logger.Debugw("stale mapper index entry", "path", rec.Path, "namespace", ns)
			return nil, false
		}
		docs = append(docs, s.document(current.Path, current.Namespace))
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Path() < docs[j].Path() })
	return docs, true
}

// refreshIndex replaces the index contents with records. The stamp is only
// written once every record is in, so a partial refresh is never trusted.
func (s *DocumentStore) refreshIndex(ctx context.Context, records []*secondary.MapperDocumentRecord, fingerprint string) {
	keep := make([]string, 0, len(records))
	for _, rec := range records {
		if err := s.index.Upsert(ctx, rec); err != nil {
			s.logger.Warnw("failed to update mapper index", "path", rec.Path, "error", err)
			return
		}
		keep = append(keep, rec.Path)
	}
	if _, err := s.index.Prune(ctx, keep); err != nil {
		s.logger.Warnw("failed to prune mapper index", "error", err)
		return
	}
	if fingerprint == "" {
		return
	}
	if err := s.index.SetStamp(ctx, fingerprint); err != nil {
		s.logger.Warnw("failed to stamp mapper index", "error", err)
	}
}

func (s *DocumentStore) document(path, namespace string) *mappingDocument {
	return &mappingDocument{path: path, namespace: namespace, locks: s.locks, logger: s.logger}
}

// mappingDocument is a mapper file addressed by canonical path. It holds no
// parsed state between calls; every read sees the file as it is now.
type mappingDocument struct {
	path      string
	namespace string
	locks     *pathLocks
	logger    *zap.SugaredLogger
}

func (d *mappingDocument) Path() string      { return d.path }
func (d *mappingDocument) Namespace() string { return d.namespace }

// load returns the document as UTF-8 text, its snapshot and the encoding the
// file is stored in.
func (d *mappingDocument) load() ([]byte, *mapperxml.Snapshot, encoding.Encoding, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "failed to read %s", d.path)
	}
	text, enc, err := mapperxml.Decode(data)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "failed to decode %s", d.path)
	}
	snap, err := mapperxml.Parse(text)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "failed to parse %s", d.path)
	}
	if len(snap.Duplicates) > 0 {
		d.logger.Warnw("mapper has duplicate statement ids", "path", d.path, "ids", snap.Duplicates)
	}
	return text, snap, enc, nil
}

func (d *mappingDocument) Elements(ctx context.Context) ([]secondary.StatementElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, snap, _, err := d.load()
	if err != nil {
		return nil, err
	}
	out := make([]secondary.StatementElement, len(snap.Statements))
	for i, st := range snap.Statements {
		out[i] = d.element(data, st)
	}
	return out, nil
}

func (d *mappingDocument) FindElementByID(ctx context.Context, id string) (*secondary.StatementElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, snap, _, err := d.load()
	if err != nil {
		return nil, err
	}
	st, ok := snap.Find(id)
	if !ok {
		return nil, nil
	}
	el := d.element(data, st)
	return &el, nil
}

func (d *mappingDocument) AppendElement(ctx context.Context, spec statement.ElementSpec) (secondary.AppendResult, error) {
	unlock := d.locks.lock(d.path)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return secondary.AppendResult{}, err
	}

	data, snap, enc, err := d.load()
	if err != nil {
		return secondary.AppendResult{}, mutationFailed(err)
	}
	// Another writer may have added the statement since the caller looked.
	if st, ok := snap.Find(spec.ID); ok {
		return secondary.AppendResult{Element: d.element(data, st)}, nil
	}
	if snap.Namespace != d.namespace {
		return secondary.AppendResult{}, mutationFailed(
			errors.Newf("namespace of %s changed from %q to %q", d.path, d.namespace, snap.Namespace))
	}

	info, err := os.Stat(d.path)
	if err != nil {
		return secondary.AppendResult{}, mutationFailed(errors.Wrapf(err, "failed to stat %s", d.path))
	}
	if info.Mode().Perm()&0o200 == 0 {
		return secondary.AppendResult{}, errors.WithHint(
			mutationFailed(errors.Newf("%s is read-only", d.path)),
			"make the file writable or check it out for editing, then retry")
	}

	out, offset, err := mapperxml.Append(data, snap, mapperxml.RenderElement(spec, snap.Indent))
	if err != nil {
		return secondary.AppendResult{}, mutationFailed(err)
	}
	after, err := mapperxml.Parse(out)
	if err != nil {
		return secondary.AppendResult{}, mutationFailed(errors.Wrap(err, "edit would corrupt the document"))
	}
	created, ok := statementAt(after, offset)
	if !ok || created.ID != spec.ID {
		return secondary.AppendResult{}, mutationFailed(errors.Newf("inserted %s not found after edit", spec.ID))
	}

	raw, err := mapperxml.Encode(out, enc)
	if err != nil {
		return secondary.AppendResult{}, mutationFailed(errors.Wrapf(err, "failed to encode %s", d.path))
	}
	if err := WriteFileAtomic(d.path, raw, info.Mode().Perm()); err != nil {
		return secondary.AppendResult{}, mutationFailed(err)
	}
	d.logger.Debugw("statement appended", "path", d.path, "id", spec.ID, "kind", spec.Kind)
	return secondary.AppendResult{Element: d.element(out, created), Created: true}, nil
}

// element converts st. The location points just past the opening tag name.
func (d *mappingDocument) element(data []byte, st mapperxml.Statement) secondary.StatementElement {
	line, col := mapperxml.Position(data, st.NameEnd)
	return secondary.StatementElement{
		ID:   st.ID,
		Kind: st.Kind,
		Body: st.Body,
		Location: secondary.Location{
			Path:   d.path,
			Offset: st.NameEnd,
			Line:   line,
			Column: col,
		},
	}
}

func statementAt(snap *mapperxml.Snapshot, offset int) (mapperxml.Statement, bool) {
	for _, st := range snap.Statements {
		if st.Start == offset {
			return st, true
		}
	}
	return mapperxml.Statement{}, false
}

func mutationFailed(err error) error {
	if errors.Is(err, statement.ErrDocumentMutationFailed) {
		return err
	}
	return errors.Mark(err, statement.ErrDocumentMutationFailed)
}

// pathLocks serializes writers per path.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	m, ok := p.locks[path]
	if !ok {
		m = &sync.Mutex{}
		p.locks[path] = m
	}
	p.mu.Unlock()
	m.Lock()
	return m.Unlock
}
