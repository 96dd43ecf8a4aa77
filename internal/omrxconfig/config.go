// Package omrxconfig loads and validates omrxctl's runtime configuration:
// YAML-with-env-override layering (defaults, project file, environment
// variables) with a Validate/WriteYAML shape, covering the OMRX
// toolchain's own concerns (watched paths, cache sizing, catalog and
// spatial index tuning, MCP server transport).
package omrxconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-directory config file omrxctl looks for.
const ConfigFileName = ".omrxctl.yaml"

// CurrentVersion is the schema version this build writes and expects.
const CurrentVersion = 1

// Config is the complete omrxctl configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	Spatial SpatialConfig `yaml:"spatial" json:"spatial"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// WatchConfig holds the watch include/exclude patterns and debounce for
// .omrx directories. It is loaded, merged and printed by `omrxctl config`;
// no command starts a watcher from it.
type WatchConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
	// DebounceMS coalesces a burst of filesystem events on the same file
	// into a single rescan.
	DebounceMS int `yaml:"debounce_ms" json:"debounce_ms"`
}

// CacheConfig configures the lazy-attribute LRU (internal/cache).
type CacheConfig struct {
	// Capacity bounds how many distinct file-backed attribute payloads
	// stay resident across all open containers.
	Capacity int `yaml:"capacity" json:"capacity"`
}

// CatalogConfig configures the id/tag/name text index (internal/catalog).
type CatalogConfig struct {
	// Path is the on-disk Bleve index directory. Empty builds an
	// in-memory index that doesn't survive process restart.
	Path string `yaml:"path" json:"path"`
}

// SpatialConfig holds HNSW tuning for the nearest-vertex index. The values
// are validated and printed by `omrxctl config`; spatial.New does not read
// them and always uses M=16, EfSearch=20.
type SpatialConfig struct {
	// M is the HNSW graph's max connections per layer.
	M int `yaml:"m" json:"m"`
	// EfSearch is the HNSW query-time search width.
	EfSearch int `yaml:"ef_search" json:"ef_search"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Watch: WatchConfig{
			Include:    []string{"**/*.omrx"},
			Exclude:    []string{".git", "node_modules"},
			DebounceMS: 300,
		},
		Cache: CacheConfig{
			Capacity: 512,
		},
		Catalog: CatalogConfig{
			Path: "",
		},
		Spatial: SpatialConfig{
			M:        16,
			EfSearch: 20,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load builds a Config by starting from defaults, then layering a
// project-local .omrxctl.yaml (if dir or an ancestor has one) and
// environment variable overrides on top, highest priority last.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path, ok := findConfigFile(dir); ok {
		if err := cfg.mergeYAMLFile(path); err != nil {
			return nil, fmt.Errorf("omrxconfig: load %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(abs, ConfigFileName)
		if fileExists(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", false
		}
		abs = parent
	}
}

func (c *Config) mergeYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var onDisk Config
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	c.mergeWith(&onDisk)
	return nil
}

// mergeWith overlays non-zero fields from other onto c, field by field.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Watch.Include) > 0 {
		c.Watch.Include = other.Watch.Include
	}
	if len(other.Watch.Exclude) > 0 {
		c.Watch.Exclude = other.Watch.Exclude
	}
	if other.Watch.DebounceMS != 0 {
		c.Watch.DebounceMS = other.Watch.DebounceMS
	}
	if other.Cache.Capacity != 0 {
		c.Cache.Capacity = other.Cache.Capacity
	}
	if other.Catalog.Path != "" {
		c.Catalog.Path = other.Catalog.Path
	}
	if other.Spatial.M != 0 {
		c.Spatial.M = other.Spatial.M
	}
	if other.Spatial.EfSearch != 0 {
		c.Spatial.EfSearch = other.Spatial.EfSearch
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides lets OMRXCTL_* environment variables win over both
// defaults and the on-disk file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OMRXCTL_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Capacity = n
		}
	}
	if v := os.Getenv("OMRXCTL_CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("OMRXCTL_SERVER_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("OMRXCTL_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate reports configuration errors that would otherwise surface as
// confusing failures deep inside the engine or the indexes.
func (c *Config) Validate() error {
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must be >= 0, got %d", c.Cache.Capacity)
	}
	if c.Spatial.M <= 0 {
		return fmt.Errorf("spatial.m must be > 0, got %d", c.Spatial.M)
	}
	if c.Spatial.EfSearch <= 0 {
		return fmt.Errorf("spatial.ef_search must be > 0, got %d", c.Spatial.EfSearch)
	}
	switch c.Server.Transport {
	case "stdio":
	default:
		return fmt.Errorf("server.transport must be stdio, got %q", c.Server.Transport)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("server.log_level must be one of debug/info/warn/error, got %q", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML persists c to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
