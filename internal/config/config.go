// Package config provides configuration management for skilltrigger.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klauern/skilltrigger/internal/cache"
	"github.com/klauern/skilltrigger/internal/loader"
	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/plugin"
	"github.com/klauern/skilltrigger/internal/source"
	"github.com/klauern/skilltrigger/internal/util"
)

// envPrefix starts every environment override.
const envPrefix = "SKILLTRIGGER_"

// Config represents the complete skilltrigger configuration.
type Config struct {
	// Sources lists the skill roots for each scope
	Sources SourcesConfig `yaml:"sources"`

	// Load configures how roots are read
	Load LoadConfig `yaml:"load"`

	// Cache configures the parse cache
	Cache CacheConfig `yaml:"cache"`

	// Plugins configures plugin loading
	Plugins PluginsConfig `yaml:"plugins"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`

	// Watch configures reload on change
	Watch WatchConfig `yaml:"watch"`
}

// SourcesConfig holds the roots for every scope.
type SourcesConfig struct {
	Repository ScopeConfig `yaml:"repository"`
	Knowledge  ScopeConfig `yaml:"knowledge"`
	Agent      ScopeConfig `yaml:"agent"`
}

// ScopeConfig holds the roots of one scope.
type ScopeConfig struct {
	// Paths are read in order. They can use ~ for the home directory or be
	// relative (resolved from the working directory).
	Paths []string `yaml:"paths,omitempty"`
}

// LoadConfig holds reader settings.
type LoadConfig struct {
	// Extensions are the recognized document extensions
	Extensions []string `yaml:"extensions"`
	// Ignore holds glob patterns matched against root-relative paths
	Ignore []string `yaml:"ignore"`
	// Timeout bounds a whole load pass; zero disables it
	Timeout time.Duration `yaml:"timeout"`
	// Workers is the number of parallel file readers; zero picks a default
	Workers int `yaml:"workers"`
	// StrictRoots makes a missing configured root a load failure
	StrictRoots bool `yaml:"strict_roots"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	// Enabled enables or disables caching
	Enabled bool `yaml:"enabled"`
	// TTL drops entries not refreshed within this long
	TTL time.Duration `yaml:"ttl"`
	// Location is the cache directory path
	Location string `yaml:"location"`
}

// PluginsConfig holds plugin settings.
type PluginsConfig struct {
	// Enabled enables plugin loading
	Enabled bool `yaml:"enabled"`
	// Sources are plugin sources such as
	// "github:owner/repo//plugins/name#main" or a local directory
	Sources []string `yaml:"sources,omitempty"`
	// Dir is where remote plugins are cloned
	Dir string `yaml:"dir"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Format is the default output format (table, json)
	Format string `yaml:"format"`
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// Debounce is how long changes must settle before a reload
	Debounce time.Duration `yaml:"debounce"`
}

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Repository: ScopeConfig{Paths: []string{
				".skilltrigger/skills", // Project (relative)
			}},
			Knowledge: ScopeConfig{Paths: []string{
				"~/.skilltrigger/knowledge", // User (absolute)
			}},
			Agent: ScopeConfig{Paths: []string{
				".skilltrigger/agents",   // Project (relative)
				"~/.skilltrigger/agents", // User (absolute)
			}},
		},
		Load: LoadConfig{
			Extensions: append([]string(nil), source.DefaultExtensions...),
			Ignore:     append([]string(nil), source.DefaultIgnore...),
			Timeout:    30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      cache.DefaultTTL,
			Location: util.CacheDir(),
		},
		Plugins: PluginsConfig{
			Enabled: true,
			Dir:     util.PluginsDir(),
		},
		Output: OutputConfig{
			Format: FormatTable,
			Color:  ColorAuto,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// FilePath returns the path to the config file.
func FilePath() string {
	return util.ConfigPath()
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	return LoadOrDefault(FilePath())
}

// LoadOrDefault loads the configuration at path, returning defaults with
// environment overrides when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFromPath(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.applyEnvironment()
		return cfg, nil
	}
	return cfg, err
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern SKILLTRIGGER_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Scope roots, colon-separated
	if v := getenv("REPOSITORY_PATHS"); v != "" {
		c.Sources.Repository.Paths = splitPaths(v)
	}
	if v := getenv("KNOWLEDGE_PATHS"); v != "" {
		c.Sources.Knowledge.Paths = splitPaths(v)
	}
	if v := getenv("AGENT_PATHS"); v != "" {
		c.Sources.Agent.Paths = splitPaths(v)
	}

	// Load settings
	if v := getenv("LOAD_EXTENSIONS"); v != "" {
		c.Load.Extensions = splitList(v)
	}
	if v := getenv("LOAD_IGNORE"); v != "" {
		c.Load.Ignore = splitList(v)
	}
	if v := getenv("LOAD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Load.Timeout = d
		}
	}
	if v := getenv("LOAD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Load.Workers = n
		}
	}
	if v := getenv("LOAD_STRICT_ROOTS"); v != "" {
		c.Load.StrictRoots = parseBool(v)
	}

	// Cache settings
	if v := getenv("CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = parseBool(v)
	}
	if v := getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := getenv("CACHE_LOCATION"); v != "" {
		c.Cache.Location = v
	}

	// Plugin settings; sources are comma-separated since they contain colons
	if v := getenv("PLUGINS_ENABLED"); v != "" {
		c.Plugins.Enabled = parseBool(v)
	}
	if v := getenv("PLUGINS_SOURCES"); v != "" {
		c.Plugins.Sources = splitList(v)
	}
	if v := getenv("PLUGINS_DIR"); v != "" {
		c.Plugins.Dir = v
	}

	// Output settings
	if v := getenv("OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := getenv("OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := getenv("OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}

	// Watch settings
	if v := getenv("WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Watch.Debounce = d
		}
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("%w: output format %q (want %s or %s)", ErrInvalid, c.Output.Format, FormatTable, FormatJSON)
	}
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color mode %q (want auto, always or never)", ErrInvalid, c.Output.Color)
	}
	if c.Load.Timeout < 0 {
		return fmt.Errorf("%w: load timeout cannot be negative: %s", ErrInvalid, c.Load.Timeout)
	}
	if c.Load.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative: %d", ErrInvalid, c.Load.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch debounce cannot be negative: %s", ErrInvalid, c.Watch.Debounce)
	}
	if _, err := c.PluginSources(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ScopePaths returns the configured paths for a scope.
func (c *Config) ScopePaths(scope model.Scope) []string {
	switch scope {
	case model.ScopeRepository:
		return c.Sources.Repository.Paths
	case model.ScopeKnowledge:
		return c.Sources.Knowledge.Paths
	case model.ScopeAgent:
		return c.Sources.Agent.Paths
	default:
		return nil
	}
}

// Roots returns every configured root, resolved against baseDir, in scope
// order and then configured order. Duplicate paths within a scope are
// dropped.
func (c *Config) Roots(baseDir string) []loader.Root {
	var roots []loader.Root
	for _, scope := range model.AllScopes() {
		seen := make(map[string]bool)
		for _, p := range c.ScopePaths(scope) {
			resolved := util.ResolvePath(p, baseDir)
			if resolved == "" || seen[resolved] {
				continue
			}
			seen[resolved] = true
			roots = append(roots, loader.Root{Path: resolved, Scope: scope, Optional: !c.Load.StrictRoots})
		}
	}
	return roots
}

// PluginSources parses the configured plugin sources. It returns nil when
// plugins are disabled.
func (c *Config) PluginSources() ([]plugin.Source, error) {
	if !c.Plugins.Enabled {
		return nil, nil
	}
	sources := make([]plugin.Source, 0, len(c.Plugins.Sources))
	for _, raw := range c.Plugins.Sources {
		src, err := plugin.ParseSource(raw)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitPaths splits a colon-separated path string into individual paths.
// Empty segments are filtered out.
func splitPaths(s string) []string {
	return split(s, ":")
}

// splitList splits a comma-separated list.
func splitList(s string) []string {
	return split(s, ",")
}

func split(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
