// Package cli contains the cobra commands of the mapgen binary.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/example/mapgen/internal/adapters/selection"
	"github.com/example/mapgen/internal/config"
	"github.com/example/mapgen/internal/logging"
	"github.com/example/mapgen/internal/ports/secondary"
	"github.com/example/mapgen/internal/wire"
)

var (
	projectDir string
	jsonLog    bool
	verbose    bool
)

// AddPersistentFlags registers the flags every command accepts.
func AddPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "project directory")
	root.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write logs to stderr as JSON")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

// sessionOptions are the command-specific parts of the container setup.
type sessionOptions struct {
	selector   secondary.Selector
	openEditor bool
}

// startSession loads the project configuration, initializes logging and
// configures the container. It must run before any wire accessor.
func startSession(opts sessionOptions) (string, *config.Config, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to resolve project directory")
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return "", nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if err := logging.Initialize(logging.Options{JSON: jsonLog || cfg.Log.JSON, Level: level}); err != nil {
		return "", nil, err
	}

	wire.Configure(wire.Options{
		Dir:        dir,
		Config:     cfg,
		Selector:   opts.selector,
		OpenEditor: opts.openEditor,
	})
	logging.Logger.Debugw("session started", "dir", dir, "index", cfg.Index.Enabled)
	return dir, cfg, nil
}

// newSelector answers prompts from the preset values first. Remaining
// questions go to the terminal unless nonInteractive is set or stdin is
// not a terminal, in which case they are cancelled.
func newSelector(nonInteractive bool, presets ...string) secondary.Selector {
	var fallback secondary.Selector
	if !nonInteractive && selection.IsTerminal(os.Stdin) {
		fallback = selection.NewInteractiveSelector()
	}
	return selection.NewPresetSelector(fallback, presets...)
}

// PrintError writes err and its hints.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}
