// Package wire provides dependency injection for the mapgen application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	cliadapter "github.com/example/mapgen/internal/adapters/cli"
	"github.com/example/mapgen/internal/adapters/editor"
	"github.com/example/mapgen/internal/adapters/filesystem"
	"github.com/example/mapgen/internal/adapters/javasource"
	"github.com/example/mapgen/internal/adapters/sqlite"
	"github.com/example/mapgen/internal/app"
	"github.com/example/mapgen/internal/config"
	"github.com/example/mapgen/internal/core/statement"
	"github.com/example/mapgen/internal/db"
	"github.com/example/mapgen/internal/logging"
	"github.com/example/mapgen/internal/ports/primary"
	"github.com/example/mapgen/internal/ports/secondary"
)

// Options are the per-invocation inputs to the container. They must be set
// with Configure before the first service is requested.
type Options struct {
	// Dir is the project directory; relative config paths resolve against it.
	Dir string
	// Config is the loaded configuration. Nil means config.Default().
	Config *config.Config
	// Selector answers disambiguation prompts. Nil makes a prompt an error.
	Selector secondary.Selector
	// OpenEditor launches the editor at generated statements.
	OpenEditor bool
	// Notices receives editor notices. Nil means stdout.
	Notices io.Writer
}

var (
	options Options

	generationService primary.GenerationService
	indexService      primary.IndexService
	scanner           *filesystem.Scanner
	database          *sql.DB
	initErr           error
	once              sync.Once
)

// Configure sets the options used by the lazy initialization. Calls after
// the first service has been requested have no effect.
func Configure(opts Options) {
	options = opts
}

// GenerationService returns the singleton GenerationService instance.
func GenerationService() (primary.GenerationService, error) {
	once.Do(initServices)
	return generationService, initErr
}

// IndexService returns the singleton IndexService instance.
func IndexService() (primary.IndexService, error) {
	once.Do(initServices)
	return indexService, initErr
}

// Scanner returns the scanner over the configured roots.
func Scanner() (*filesystem.Scanner, error) {
	once.Do(initServices)
	return scanner, initErr
}

// Close releases the index database, if one was opened.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg := options.Config
	if cfg == nil {
		cfg = config.Default()
	}
	notices := options.Notices
	if notices == nil {
		notices = os.Stdout
	}

	registryConfig, err := cfg.RegistryConfig()
	if err != nil {
		initErr = err
		return
	}
	registry, err := statement.NewRegistry(registryConfig)
	if err != nil {
		initErr = errors.Wrap(err, "failed to build generator registry")
		return
	}

	// Repositories are optional; a disabled index leaves both ports nil.
	var (
		index   secondary.MapperIndex
		history secondary.GenerationLog
	)
	if cfg.Index.Enabled {
		database, err = db.Open(cfg.IndexPath(options.Dir))
		if err != nil {
			initErr = errors.WithHint(
				errors.Wrap(err, "failed to open mapper index"),
				"set index.enabled = false in "+config.Path(options.Dir)+" to run without the index",
			)
			return
		}
		index = sqlite.NewMapperIndexRepository(database)
		history = sqlite.NewGenerationLogRepository(database)
	}

	scanner = filesystem.NewScanner(filesystem.ScanOptions{
		Roots:   cfg.ScanRoots(options.Dir),
		Exclude: cfg.Scan.Exclude,
		Workers: cfg.Scan.Workers,
	}, logging.Named("scan"))
	store := filesystem.NewDocumentStore(scanner, index, logging.Named("store"))

	parser := javasource.NewParser()
	navigator := editor.NewNavigator(notices, editor.Options{
		Command: cfg.Editor.Command,
		Open:    options.OpenEditor,
	}, logging.Named("editor"))

	// Create effect executor with injected adapters
	executor := app.NewEffectExecutor(navigator, history, logging.Named("effects"))

	// Create services (primary ports implementation)
	generationService = app.NewGenerationService(
		registry,
		app.NewMapperResolver(store),
		app.NewStatementSynthesizer(statement.TemplateOptions{DefaultResultType: cfg.Generate.DefaultResultType}),
		options.Selector,
		javasource.NewUniverseProvider(parser),
		parser,
		history,
		executor,
		logging.Named("generate"),
	)
	indexService = app.NewIndexService(scanner, index, logging.Named("index"))
}

// GenerationAdapter returns a new GenerationAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func GenerationAdapter() (*cliadapter.GenerationAdapter, error) {
	return GenerationAdapterWithOutput(os.Stdout)
}

// GenerationAdapterWithOutput returns a new GenerationAdapter writing to the given output.
func GenerationAdapterWithOutput(out io.Writer) (*cliadapter.GenerationAdapter, error) {
	service, err := GenerationService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewGenerationAdapter(service, out), nil
}

// IndexAdapter returns a new IndexAdapter writing to stdout.
func IndexAdapter() (*cliadapter.IndexAdapter, error) {
	return IndexAdapterWithOutput(os.Stdout)
}

// IndexAdapterWithOutput returns a new IndexAdapter writing to the given output.
func IndexAdapterWithOutput(out io.Writer) (*cliadapter.IndexAdapter, error) {
	service, err := IndexService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewIndexAdapter(service, out), nil
}
