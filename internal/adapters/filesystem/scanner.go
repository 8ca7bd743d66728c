package filesystem

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/mapgen/internal/core/mapperxml"
	"github.com/example/mapgen/internal/ports/secondary"
)

// ScanOptions configures which files a Scanner visits.
type ScanOptions struct {
	Roots   []string
	Exclude []string // directory base names to skip
	Workers int
}

// Scanner implements secondary.DocumentScanner by walking directory trees
// for mapper XML files.
type Scanner struct {
	roots   []string
	exclude map[string]bool
	workers int
	logger  *zap.SugaredLogger
}

// NewScanner creates a new Scanner.
func NewScanner(opts ScanOptions, logger *zap.SugaredLogger) *Scanner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	roots := opts.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, e := range opts.Exclude {
		exclude[e] = true
	}
	return &Scanner{roots: roots, exclude: exclude, workers: workers, logger: logger}
}

// Roots returns the directories the scanner walks.
func (s *Scanner) Roots() []string {
	return append([]string(nil), s.roots...)
}

// Excluded reports whether a directory with the given base name is skipped.
func (s *Scanner) Excluded(name string) bool {
	return s.exclude[name]
}

// Scan parses every mapper document under the roots, ordered by path.
func (s *Scanner) Scan(ctx context.Context) ([]*secondary.MapperDocumentRecord, error) {
	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		records []*secondary.MapperDocumentRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, path := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := s.read(path)
			if err != nil {
				// One broken file must not hide the rest of the tree.
				s.logger.Debugw("skipping unparseable xml", "path", path, "error", err)
				return nil
			}
			if rec == nil {
				return nil
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "mapper scan interrupted")
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	s.logger.Debugw("mapper scan complete", "candidates", len(candidates), "mappers", len(records))
	return records, nil
}

// ScanFile parses one file. Missing files and files that are not mapper
// documents yield nil.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*secondary.MapperDocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := Canonical(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	rec, err := s.read(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, mapperxml.ErrNotMapper) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// Fingerprint hashes the path, size and modification time of every *.xml
// file under the roots. Files are stat'ed, not read.
func (s *Scanner) Fingerprint(ctx context.Context) (string, error) {
	candidates, err := s.candidates(ctx)
	if err != nil {
		return "", err
	}
	sort.Strings(candidates)

	h := sha256.New()
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", errors.Wrapf(err, "failed to stat %s", path)
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Scanner) candidates(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, root := range s.roots {
		abs, err := Canonical(root)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid scan root %s", root)
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == abs {
					return err
				}
				s.logger.Debugw("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && s.exclude[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".xml") || seen[path] {
				return nil
			}
			seen[path] = true
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to walk %s", root)
		}
	}
	return paths, nil
}

// read parses path, which must already be canonical. A file that is well
// formed but not a mapper yields nil without error.
func (s *Scanner) read(path string) (*secondary.MapperDocumentRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.Contains(data, []byte("<"+mapperxml.RootElement)) {
		return nil, nil
	}
	text, _, err := mapperxml.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	snap, err := mapperxml.Parse(text)
	if err != nil {
		if errors.Is(err, mapperxml.ErrNotMapper) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return &secondary.MapperDocumentRecord{
		Path:         path,
		Namespace:    snap.Namespace,
		StatementIDs: snap.IDs(),
		ModTime:      info.ModTime().UTC().Format(time.RFC3339),
		Size:         info.Size(),
	}, nil
}

// Canonical returns the absolute, symlink-free form of path.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
