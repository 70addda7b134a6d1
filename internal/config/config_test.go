package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty index filename", func(c *Config) { c.IndexFilename = "" }},
		{"index filename with path", func(c *Config) { c.IndexFilename = filepath.Join("a", "b.db") }},
		{"zero query cells", func(c *Config) { c.MaxQueryCells = 0 }},
		{"negative cell level", func(c *Config) { c.MaxCellLevel = -1 }},
		{"excessive cell level", func(c *Config) { c.MaxCellLevel = 31 }},
		{"no feature segments", func(c *Config) { c.FeatureSegments = nil }},
		{"negative progress interval", func(c *Config) { c.ProgressEvery = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIndexPath(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.IndexPath(filepath.Join("repo", ".git"))
	want := filepath.Join("repo", ".git", "spatial_index.db")
	if got != want {
		t.Errorf("IndexPath = %q, want %q", got, want)
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("index_filename: other.db\nmax_query_cells: 50\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.IndexFilename != "other.db" {
		t.Errorf("IndexFilename = %q, want %q", cfg.IndexFilename, "other.db")
	}
	if cfg.MaxQueryCells != 50 {
		t.Errorf("MaxQueryCells = %d, want 50", cfg.MaxQueryCells)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Unset fields keep their defaults.
	if cfg.MaxCellLevel != 15 {
		t.Errorf("MaxCellLevel = %d, want default 15", cfg.MaxCellLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TERRAVC_MAX_QUERY_CELLS", "8")
	t.Setenv("TERRAVC_FEATURE_SEGMENTS", "/a/:/b/")
	t.Setenv("TERRAVC_METRICS_ENABLED", "true")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.MaxQueryCells != 8 {
		t.Errorf("MaxQueryCells = %d, want 8", cfg.MaxQueryCells)
	}
	if len(cfg.FeatureSegments) != 2 || cfg.FeatureSegments[0] != "/a/" {
		t.Errorf("FeatureSegments = %v, want [/a/ /b/]", cfg.FeatureSegments)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true")
	}
}
