// Package config provides unified configuration for the terravc filter
// tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for a filter session.
type Config struct {
	// IndexFilename is the name of the spatial index file inside the
	// repository's metadata directory.
	IndexFilename string `json:"index_filename" yaml:"index_filename"`

	// MaxQueryCells bounds the number of cells in a query covering.
	// Raising it tightens the covering at the cost of query size.
	MaxQueryCells int `json:"max_query_cells" yaml:"max_query_cells"`

	// MaxCellLevel bounds the cell-decomposition depth of the covering.
	MaxCellLevel int `json:"max_cell_level" yaml:"max_cell_level"`

	// FeatureSegments are the path segments that mark feature-geometry
	// blobs. Blobs whose path contains none of them are never filtered.
	FeatureSegments []string `json:"feature_segments" yaml:"feature_segments"`

	// ProgressEvery is the number of visited objects between progress
	// log lines. Zero disables progress reporting.
	ProgressEvery int `json:"progress_every" yaml:"progress_every"`

	// Log configures logging output.
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics configures the optional Prometheus registry.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Console switches from JSON output to a human-readable writer.
	Console bool `json:"console" yaml:"console"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether session counters are registered with a
	// Prometheus registry.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		IndexFilename: "spatial_index.db",
		MaxQueryCells: 25,
		MaxCellLevel:  15,
		FeatureSegments: []string{
			"/.sno-dataset/feature/",
			"/.table-dataset/feature/",
		},
		ProgressEvery: 20000,
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.IndexFilename == "" {
		return fmt.Errorf("index_filename is required")
	}
	if strings.ContainsRune(c.IndexFilename, os.PathSeparator) {
		return fmt.Errorf("index_filename must be a bare filename, got %q", c.IndexFilename)
	}
	if c.MaxQueryCells < 1 {
		return fmt.Errorf("max_query_cells must be at least 1, got %d", c.MaxQueryCells)
	}
	if c.MaxCellLevel < 0 || c.MaxCellLevel > 30 {
		return fmt.Errorf("max_cell_level must be between 0 and 30, got %d", c.MaxCellLevel)
	}
	if len(c.FeatureSegments) == 0 {
		return fmt.Errorf("at least one feature segment is required")
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must not be negative, got %d", c.ProgressEvery)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	return nil
}

// IndexPath returns the path of the spatial index file inside the given
// repository metadata directory.
func (c *Config) IndexPath(gitDir string) string {
	return filepath.Join(gitDir, c.IndexFilename)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the TERRAVC_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TERRAVC_INDEX_FILENAME"); v != "" {
		cfg.IndexFilename = v
	}
	if v := os.Getenv("TERRAVC_MAX_QUERY_CELLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxQueryCells = n
		}
	}
	if v := os.Getenv("TERRAVC_MAX_CELL_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCellLevel = n
		}
	}
	if v := os.Getenv("TERRAVC_FEATURE_SEGMENTS"); v != "" {
		cfg.FeatureSegments = strings.Split(v, ":")
	}
	if v := os.Getenv("TERRAVC_PROGRESS_EVERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProgressEvery = n
		}
	}
	if v := os.Getenv("TERRAVC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TERRAVC_LOG_CONSOLE"); v != "" {
		cfg.Log.Console = v == "true" || v == "1"
	}
	if v := os.Getenv("TERRAVC_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
}
