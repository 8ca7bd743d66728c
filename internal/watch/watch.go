// Package watch reports changed mapper files under a set of directory trees.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Handler receives the paths changed during one settled burst of events.
type Handler func(ctx context.Context, paths []string) error

// Options configures a Watcher.
type Options struct {
	Roots    []string
	Exclude  func(dirName string) bool
	Debounce time.Duration
}

// Watcher batches file system events for *.xml files and hands them to a
// Handler once they stop arriving.
type Watcher struct {
	fs       *fsnotify.Watcher
	exclude  func(string) bool
	debounce time.Duration
	handler  Handler
	logger   *zap.SugaredLogger
}

// New creates a Watcher over every directory below opts.Roots.
func New(opts Options, handler Handler, logger *zap.SugaredLogger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{
		fs:       fsw,
		exclude:  opts.Exclude,
		debounce: opts.Debounce,
		handler:  handler,
		logger:   logger,
	}
	if w.exclude == nil {
		w.exclude = func(string) bool { return false }
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, root := range opts.Roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.Wrapf(err, "failed to watch %s", root)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.exclude(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// Run processes events until ctx is done. Pending changes are dropped on
// shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("mapper change", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watcher error", "error", err)

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)
			if err := w.handler(ctx, paths); err != nil {
				w.logger.Warnw("change handler failed", "paths", len(paths), "error", err)
			}
		}
	}
}

// relevant reports whether event concerns a mapper candidate. New
// directories are added to the watch as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.exclude(filepath.Base(event.Name)) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warnw("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return false
		}
	}
	base := filepath.Base(event.Name)
	// Temporary files from atomic writes.
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(base), ".xml") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
