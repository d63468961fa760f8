package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "inkwell", cfg.DBName)
	assert.Equal(t, 60, cfg.Search.RRFK)
	assert.Equal(t, 50, cfg.Search.BM25TopK)
	assert.Equal(t, 50, cfg.Search.VectorTopK)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
	assert.Equal(t, "static", cfg.Embedder.Backend)
	assert.Equal(t, 384, cfg.Embedder.Dimensions)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
data_root: /tmp/inkwell-test
search:
  rrf_k: 30
embedder:
  backend: none
cache:
  capacity: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".inkwell.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/inkwell-test", cfg.DataRoot)
	assert.Equal(t, 30, cfg.Search.RRFK)
	assert.Equal(t, "none", cfg.Embedder.Backend)
	assert.Equal(t, 50, cfg.Cache.Capacity)
	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Search.BM25TopK)
	assert.Equal(t, "inkwell", cfg.DBName)
}

func TestLoadWalksUpForProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".inkwell.yaml"), []byte("db_name: walked"), 0o644))

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, "walked", cfg.DBName)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".inkwell.yaml"), []byte("tier: base"), 0o644))
	t.Setenv("INKWELL_TIER", "full")
	t.Setenv("INKWELL_RRF_K", "42")
	t.Setenv("INKWELL_EMBEDDER", "none")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Tier)
	assert.Equal(t, 42, cfg.Search.RRFK)
	assert.Equal(t, "none", cfg.Embedder.Backend)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".inkwell.yaml"), []byte("search: [not a map"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data root", func(c *Config) { c.DataRoot = "" }},
		{"unknown tier", func(c *Config) { c.Tier = "turbo" }},
		{"unknown backend", func(c *Config) { c.Embedder.Backend = "gpt" }},
		{"zero dimensions", func(c *Config) { c.Embedder.Dimensions = 0 }},
		{"zero rrf k", func(c *Config) { c.Search.RRFK = 0 }},
		{"zero cache capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := NewConfig()
	cfg.DataRoot = "/data/kb"

	assert.Equal(t, filepath.Join("/data/kb", "vectordb"), cfg.VectorDBDir())
	assert.Equal(t, filepath.Join("/data/kb", ".inkwell.lock"), cfg.LockPath())
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := NewConfig()
	cfg.DBName = "roundtrip"
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, "roundtrip", loaded.DBName)
}
