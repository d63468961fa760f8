// Package config loads inkwell's layered configuration: compiled-in
// defaults, then the user config (~/.config/inkwell/config.yaml), then a
// project config (.inkwell.yaml discovered by walking up from the working
// directory), then INKWELL_* environment variables, validated last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	// DataRoot is the directory holding vectordb/, uploads/, imports/,
	// exports/, and the tracking file.
	DataRoot string `yaml:"data_root"`

	// DBName is the database file name under vectordb/, without extension.
	DBName string `yaml:"db_name"`

	// Tier overrides host-capability probing when non-empty: one of
	// "base", "enhanced", "advanced", "full".
	Tier string `yaml:"tier"`

	Search   SearchConfig   `yaml:"search"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SearchConfig holds the search settings. Recall reads only DefaultTopK;
// hybrid resolution uses fixed values (k = 60, 50 hits per branch) and does
// not read RRFK, BM25TopK or VectorTopK.
type SearchConfig struct {
	// RRFK is the reciprocal-rank-fusion constant.
	RRFK int `yaml:"rrf_k"`

	// BM25TopK and VectorTopK are the per-branch fan-out sizes fused by RRF.
	BM25TopK   int `yaml:"bm25_top_k"`
	VectorTopK int `yaml:"vector_top_k"`

	// DefaultTopK is the result count when the caller doesn't ask for one.
	DefaultTopK int `yaml:"default_top_k"`
}

// ChunkingConfig overrides the chunk-size table. Zero values keep the
// built-in defaults.
type ChunkingConfig struct {
	GenericSize    int `yaml:"generic_size"`
	GenericOverlap int `yaml:"generic_overlap"`
	CodeSize       int `yaml:"code_size"`
	CodeOverlap    int `yaml:"code_overlap"`
	DocSize        int `yaml:"doc_size"`
	DocOverlap     int `yaml:"doc_overlap"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	// Backend is "static", "ollama", or "none".
	Backend string `yaml:"backend"`

	// OllamaHost and OllamaModel apply when Backend is "ollama".
	OllamaHost  string `yaml:"ollama_host"`
	OllamaModel string `yaml:"ollama_model"`

	// Timeout bounds one embedding request.
	Timeout time.Duration `yaml:"timeout"`

	// Dimensions is the embedding dimension the store is opened with.
	Dimensions int `yaml:"dimensions"`
}

// CacheConfig sizes the query-embedding cache.
type CacheConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// File is the log file path. Empty uses ~/.inkwell/logs/server.log.
	// Logs also go to stderr either way.
	File string `yaml:"file"`
}

// NewConfig returns the compiled-in defaults.
func NewConfig() *Config {
	return &Config{
		DataRoot: defaultDataRoot(),
		DBName:   "inkwell",
		Search: SearchConfig{
			RRFK:        60,
			BM25TopK:    50,
			VectorTopK:  50,
			DefaultTopK: 10,
		},
		Embedder: EmbedderConfig{
			Backend:    "static",
			Timeout:    60 * time.Second,
			Dimensions: 384,
		},
		Cache: CacheConfig{
			Capacity: 1000,
			TTL:      time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".inkwell")
}

// UserConfigPath returns ~/.config/inkwell/config.yaml.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "inkwell", "config.yaml")
}

// Load builds the effective configuration for a process started in dir.
// Precedence, lowest to highest: defaults, user config, project config,
// environment variables.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := UserConfigPath(); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if projectPath := findProjectConfig(dir); projectPath != "" {
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, fmt.Errorf("failed to load project config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// findProjectConfig walks up from dir looking for .inkwell.yaml (or .yml).
func findProjectConfig(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		for _, name := range []string{".inkwell.yaml", ".inkwell.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadYAML merges the non-zero values from a YAML file into c. A missing
// file is fine; defaults apply.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.DataRoot != "" {
		c.DataRoot = other.DataRoot
	}
	if other.DBName != "" {
		c.DBName = other.DBName
	}
	if other.Tier != "" {
		c.Tier = other.Tier
	}

	if other.Search.RRFK != 0 {
		c.Search.RRFK = other.Search.RRFK
	}
	if other.Search.BM25TopK != 0 {
		c.Search.BM25TopK = other.Search.BM25TopK
	}
	if other.Search.VectorTopK != 0 {
		c.Search.VectorTopK = other.Search.VectorTopK
	}
	if other.Search.DefaultTopK != 0 {
		c.Search.DefaultTopK = other.Search.DefaultTopK
	}

	if other.Chunking.GenericSize != 0 {
		c.Chunking.GenericSize = other.Chunking.GenericSize
	}
	if other.Chunking.GenericOverlap != 0 {
		c.Chunking.GenericOverlap = other.Chunking.GenericOverlap
	}
	if other.Chunking.CodeSize != 0 {
		c.Chunking.CodeSize = other.Chunking.CodeSize
	}
	if other.Chunking.CodeOverlap != 0 {
		c.Chunking.CodeOverlap = other.Chunking.CodeOverlap
	}
	if other.Chunking.DocSize != 0 {
		c.Chunking.DocSize = other.Chunking.DocSize
	}
	if other.Chunking.DocOverlap != 0 {
		c.Chunking.DocOverlap = other.Chunking.DocOverlap
	}

	if other.Embedder.Backend != "" {
		c.Embedder.Backend = other.Embedder.Backend
	}
	if other.Embedder.OllamaHost != "" {
		c.Embedder.OllamaHost = other.Embedder.OllamaHost
	}
	if other.Embedder.OllamaModel != "" {
		c.Embedder.OllamaModel = other.Embedder.OllamaModel
	}
	if other.Embedder.Timeout != 0 {
		c.Embedder.Timeout = other.Embedder.Timeout
	}
	if other.Embedder.Dimensions != 0 {
		c.Embedder.Dimensions = other.Embedder.Dimensions
	}

	if other.Cache.Capacity != 0 {
		c.Cache.Capacity = other.Cache.Capacity
	}
	if other.Cache.TTL != 0 {
		c.Cache.TTL = other.Cache.TTL
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies INKWELL_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INKWELL_DATA_ROOT"); v != "" {
		c.DataRoot = v
	}
	if v := os.Getenv("INKWELL_DB_NAME"); v != "" {
		c.DBName = v
	}
	if v := os.Getenv("INKWELL_TIER"); v != "" {
		c.Tier = v
	}
	if v := os.Getenv("INKWELL_RRF_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.RRFK = n
		}
	}
	if v := os.Getenv("INKWELL_EMBEDDER"); v != "" {
		c.Embedder.Backend = v
	}
	if v := os.Getenv("INKWELL_OLLAMA_HOST"); v != "" {
		c.Embedder.OllamaHost = v
	}
	if v := os.Getenv("INKWELL_OLLAMA_MODEL"); v != "" {
		c.Embedder.OllamaModel = v
	}
	if v := os.Getenv("INKWELL_EMBED_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Embedder.Timeout = d
		}
	}
	if v := os.Getenv("INKWELL_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Cache.Capacity = n
		}
	}
	if v := os.Getenv("INKWELL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("INKWELL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INKWELL_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

var validTiers = map[string]bool{
	"": true, "base": true, "enhanced": true, "advanced": true, "full": true,
}

var validBackends = map[string]bool{
	"static": true, "ollama": true, "none": true,
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the final configuration for contradictions.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("data_root must not be empty")
	}
	if c.DBName == "" {
		return fmt.Errorf("db_name must not be empty")
	}
	if !validTiers[strings.ToLower(c.Tier)] {
		return fmt.Errorf("tier must be one of base, enhanced, advanced, full; got %q", c.Tier)
	}
	if !validBackends[strings.ToLower(c.Embedder.Backend)] {
		return fmt.Errorf("embedder.backend must be one of static, ollama, none; got %q", c.Embedder.Backend)
	}
	if c.Embedder.Dimensions <= 0 {
		return fmt.Errorf("embedder.dimensions must be positive; got %d", c.Embedder.Dimensions)
	}
	if c.Search.RRFK <= 0 {
		return fmt.Errorf("search.rrf_k must be positive; got %d", c.Search.RRFK)
	}
	if c.Search.BM25TopK <= 0 || c.Search.VectorTopK <= 0 || c.Search.DefaultTopK <= 0 {
		return fmt.Errorf("search fan-out sizes must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive; got %d", c.Cache.Capacity)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive; got %s", c.Cache.TTL)
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

// VectorDBDir returns the directory holding the database file.
func (c *Config) VectorDBDir() string {
	return filepath.Join(c.DataRoot, "vectordb")
}

// LockPath returns the data-root single-writer lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataRoot, ".inkwell.lock")
}

// WriteYAML serializes the configuration to a file, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
