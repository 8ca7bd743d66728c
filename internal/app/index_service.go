package app

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/example/mapgen/internal/ports/primary"
	"github.com/example/mapgen/internal/ports/secondary"
)

// IndexServiceImpl implements the IndexService interface.
type IndexServiceImpl struct {
	scanner secondary.DocumentScanner
	index   secondary.MapperIndex
	logger  *zap.SugaredLogger
}

func errIndexDisabled() error {
	return errors.WithHint(errors.New("mapper index is disabled"), "set index.enabled = true in .mapgen/config.toml")
}

// NewIndexService creates a new IndexService with injected dependencies.
// A nil index makes every operation fail.
func NewIndexService(scanner secondary.DocumentScanner, index secondary.MapperIndex, logger *zap.SugaredLogger) *IndexServiceImpl {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &IndexServiceImpl{scanner: scanner, index: index, logger: logger}
}

// Rebuild rescans every root and replaces the index contents.
func (s *IndexServiceImpl) Rebuild(ctx context.Context) (*primary.IndexSummary, error) {
	if s.index == nil {
		return nil, errIndexDisabled()
	}
	// Taken before the scan so a change made during it invalidates the stamp.
	fingerprint, err := s.scanner.Fingerprint(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fingerprint scan roots")
	}
	records, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan mapper documents")
	}

	keep := make([]string, 0, len(records))
	for _, rec := range records {
		if err := s.index.Upsert(ctx, rec); err != nil {
			return nil, errors.Wrapf(err, "failed to index %s", rec.Path)
		}
		keep = append(keep, rec.Path)
	}
	removed, err := s.index.Prune(ctx, keep)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prune index")
	}
	if err := s.index.SetStamp(ctx, fingerprint); err != nil {
		return nil, errors.Wrap(err, "failed to stamp index")
	}

	s.logger.Infow("index rebuilt", "indexed", len(records), "removed", removed)
	return &primary.IndexSummary{Indexed: len(records), Removed: removed}, nil
}

// Refresh re-reads the given files.
func (s *IndexServiceImpl) Refresh(ctx context.Context, paths []string) (*primary.IndexSummary, error) {
	if s.index == nil {
		return nil, errIndexDisabled()
	}
	summary := &primary.IndexSummary{}
	for _, p := range paths {
		rec, err := s.scanner.ScanFile(ctx, p)
		if err != nil {
			// A half-written file is reported and retried on the next change.
			s.logger.Warnw("skipping unreadable mapper", "path", p, "error", err)
			continue
		}
		if rec == nil {
			if err := s.index.Remove(ctx, p); err != nil {
				return nil, errors.Wrapf(err, "failed to remove %s from index", p)
			}
			summary.Removed++
			continue
		}
		if err := s.index.Upsert(ctx, rec); err != nil {
			return nil, errors.Wrapf(err, "failed to index %s", rec.Path)
		}
		summary.Indexed++
	}
	s.logger.Debugw("index refreshed", "indexed", summary.Indexed, "removed", summary.Removed)
	return summary, nil
}

// ListDocuments returns every indexed document ordered by path.
func (s *IndexServiceImpl) ListDocuments(ctx context.Context) ([]*primary.MapperDocument, error) {
	if s.index == nil {
		return nil, errIndexDisabled()
	}
	records, err := s.index.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list index")
	}
	out := make([]*primary.MapperDocument, len(records))
	for i, r := range records {
		out[i] = &primary.MapperDocument{
			Path:         r.Path,
			Namespace:    r.Namespace,
			StatementIDs: r.StatementIDs,
		}
	}
	return out, nil
}
