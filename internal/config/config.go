// Package config loads per-project settings from .mapgen/config.toml.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/example/mapgen/internal/core/statement"
)

// Dir is the per-project directory holding configuration and the index.
const Dir = ".mapgen"

// FileName is the configuration file inside Dir.
const FileName = "config.toml"

// Config represents the mapgen configuration.
type Config struct {
	Generate GenerateConfig `mapstructure:"generate" toml:"generate"`
	Patterns PatternsConfig `mapstructure:"patterns" toml:"patterns"`
	Scan     ScanConfig     `mapstructure:"scan" toml:"scan"`
	Index    IndexConfig    `mapstructure:"index" toml:"index"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
	Editor   EditorConfig   `mapstructure:"editor" toml:"editor"`
}

// GenerateConfig tunes classification and statement construction.
// MatchPolicy is contains, prefix or token. DefaultResultType labels select
// statements whose result type cannot be resolved; empty omits the attribute.
type GenerateConfig struct {
	MatchPolicy       string `mapstructure:"match_policy" toml:"match_policy"`
	DefaultResultType string `mapstructure:"default_result_type" toml:"default_result_type"`
}

// PatternsConfig overrides the built-in name patterns per statement kind.
// A nil list keeps the built-ins.
type PatternsConfig struct {
	Select []string `mapstructure:"select" toml:"select,omitempty"`
	Insert []string `mapstructure:"insert" toml:"insert,omitempty"`
	Update []string `mapstructure:"update" toml:"update,omitempty"`
	Delete []string `mapstructure:"delete" toml:"delete,omitempty"`
}

// ScanConfig controls mapper discovery.
type ScanConfig struct {
	Roots   []string `mapstructure:"roots" toml:"roots"`
	Exclude []string `mapstructure:"exclude" toml:"exclude"`
	Workers int      `mapstructure:"workers" toml:"workers"`
}

// IndexConfig controls the SQLite namespace index.
type IndexConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Path    string `mapstructure:"path" toml:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json"`
	Level string `mapstructure:"level" toml:"level"`
}

// EditorConfig controls how the editor is launched.
type EditorConfig struct {
	Command string `mapstructure:"command" toml:"command"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("generate.match_policy", "contains")
	v.SetDefault("generate.default_result_type", "")

	v.SetDefault("scan.roots", []string{"."})
	v.SetDefault("scan.exclude", []string{".git", "target", "build", "node_modules", ".idea", Dir})
	v.SetDefault("scan.workers", 4)

	v.SetDefault("index.enabled", true)
	v.SetDefault("index.path", filepath.Join(Dir, "index.db"))

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "warn")

	v.SetDefault("editor.command", "")
}

// Path returns the configuration file path for the project in dir.
func Path(dir string) string {
	return filepath.Join(dir, Dir, FileName)
}

// NewViper returns a viper instance with defaults and MAPGEN_ environment
// binding, reading the project config in dir when present.
func NewViper(dir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("MAPGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	path := Path(dir)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return v, nil
}

// Load reads the configuration for the project in dir. A missing file
// yields the defaults.
func Load(dir string) (*Config, error) {
	v, err := NewViper(dir)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// Save writes cfg to the project in dir.
func Save(dir string, cfg *Config) error {
	path := Path(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s dir", Dir)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// BuiltinPatterns returns the built-in name patterns spelled out, so a new
// config file shows what can be overridden.
func BuiltinPatterns() PatternsConfig {
	return PatternsConfig{
		Select: statement.DefaultPatterns(statement.KindSelect),
		Insert: statement.DefaultPatterns(statement.KindInsert),
		Update: statement.DefaultPatterns(statement.KindUpdate),
		Delete: statement.DefaultPatterns(statement.KindDelete),
	}
}

// RegistryConfig converts the generate and patterns sections.
func (c *Config) RegistryConfig() (statement.RegistryConfig, error) {
	policy, err := statement.PolicyByName(c.Generate.MatchPolicy)
	if err != nil {
		return statement.RegistryConfig{}, errors.WithHint(err,
			"generate.match_policy must be one of: "+strings.Join(statement.PolicyNames(), ", "))
	}

	patterns := map[statement.OperationKind][]string{}
	for kind, list := range map[statement.OperationKind][]string{
		statement.KindSelect: c.Patterns.Select,
		statement.KindInsert: c.Patterns.Insert,
		statement.KindUpdate: c.Patterns.Update,
		statement.KindDelete: c.Patterns.Delete,
	} {
		if list != nil {
			patterns[kind] = list
		}
	}
	return statement.RegistryConfig{Policy: policy, Patterns: patterns}, nil
}

// IndexPath returns the index database path for the project in dir.
func (c *Config) IndexPath(dir string) string {
	return resolve(dir, c.Index.Path)
}

// ScanRoots returns the scan roots for the project in dir.
func (c *Config) ScanRoots(dir string) []string {
	roots := make([]string, len(c.Scan.Roots))
	for i, r := range c.Scan.Roots {
		roots[i] = resolve(dir, r)
	}
	return roots
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
