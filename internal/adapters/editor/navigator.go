// Package editor implements secondary.Navigator for a terminal workflow:
// formatting is applied to the file on disk and the caret is placed by
// launching the user's editor at the statement.
package editor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/example/mapgen/internal/adapters/filesystem"
	"github.com/example/mapgen/internal/core/mapperxml"
	"github.com/example/mapgen/internal/ports/secondary"
)

// Options configures a Navigator.
type Options struct {
	// Command launches the editor. {path}, {line} and {column} are replaced;
	// without placeholders "+{line} {path}" is appended. Empty falls back to
	// $VISUAL, then $EDITOR.
	Command string

	// Open enables launching the editor. When false PlaceCaret only reports.
	Open bool
}

// Runner starts an external command.
type Runner func(ctx context.Context, name string, args ...string) error

// Navigator implements secondary.Navigator.
type Navigator struct {
	out     io.Writer
	command string
	open    bool
	run     Runner
	logger  *zap.SugaredLogger
}

// NewNavigator creates a new Navigator writing notices to out.
func NewNavigator(out io.Writer, opts Options, logger *zap.SugaredLogger) *Navigator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	command := opts.Command
	if command == "" {
		command = os.Getenv("VISUAL")
	}
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	return &Navigator{
		out:     out,
		command: command,
		open:    opts.Open,
		run:     runAttached,
		logger:  logger,
	}
}

// WithRunner replaces the function used to start the editor.
func (n *Navigator) WithRunner(run Runner) *Navigator {
	n.run = run
	return n
}

// PlaceCaret opens the editor at loc when enabled.
func (n *Navigator) PlaceCaret(ctx context.Context, loc secondary.Location) error {
	if !n.open {
		n.logger.Debugw("caret", "path", loc.Path, "line", loc.Line, "column", loc.Column)
		return nil
	}
	if n.command == "" {
		return errors.WithHint(errors.New("no editor configured"),
			"set editor.command in .mapgen/config.toml or export $EDITOR")
	}
	name, args := expand(n.command, loc)
	fmt.Fprintf(n.out, "Opening %s:%d:%d in %s\n", loc.Path, loc.Line, loc.Column, name)
	if err := n.run(ctx, name, args...); err != nil {
		return errors.Wrapf(err, "failed to run %s", name)
	}
	return nil
}

// Reformat re-indents the element containing around using the document's
// own indentation step.
func (n *Navigator) Reformat(ctx context.Context, path string, around int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	data, enc, err := mapperxml.Decode(raw)
	if err != nil {
		return errors.Wrapf(err, "failed to decode %s", path)
	}
	if around < 0 || around > len(data) {
		return errors.Newf("offset %d outside %s", around, path)
	}
	start := bytes.LastIndexByte(data[:min(around+1, len(data))], '<')
	if start < 0 {
		return errors.Newf("no element at offset %d in %s", around, path)
	}

	step := mapperxml.DefaultIndent
	if snap, err := mapperxml.Parse(data); err == nil {
		if s := strings.TrimPrefix(snap.Indent, snap.RootIndent); s != "" {
			step = s
		}
	}

	out, changed := mapperxml.Reindent(data, start, step)
	if !changed {
		return nil
	}
	if out, err = mapperxml.Encode(out, enc); err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	return filesystem.WriteFileAtomic(path, out, info.Mode().Perm())
}

// expand builds the editor command line for loc.
func expand(command string, loc secondary.Location) (string, []string) {
	fields := strings.Fields(command)
	replacer := strings.NewReplacer(
		"{path}", loc.Path,
		"{line}", strconv.Itoa(loc.Line),
		"{column}", strconv.Itoa(loc.Column),
	)
	placeholders := strings.Contains(command, "{path}")
	args := make([]string, 0, len(fields)+1)
	for _, f := range fields[1:] {
		args = append(args, replacer.Replace(f))
	}
	if !placeholders {
		args = append(args, "+"+strconv.Itoa(loc.Line), loc.Path)
	}
	return fields[0], args
}

func runAttached(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
