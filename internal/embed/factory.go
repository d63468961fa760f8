package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Backend names an embedding backend.
type Backend string

const (
	// BackendStatic is the deterministic hash embedder: always available,
	// no network, no GPU. The default when nothing else is configured.
	BackendStatic Backend = "static"

	// BackendOllama calls a local Ollama server.
	BackendOllama Backend = "ollama"

	// BackendNone disables embedding entirely; recall degrades to
	// keyword-only search.
	BackendNone Backend = "none"
)

// ParseBackend converts a string to a Backend, defaulting to static.
func ParseBackend(s string) Backend {
	switch strings.ToLower(s) {
	case "ollama":
		return BackendOllama
	case "none", "noop", "off":
		return BackendNone
	default:
		return BackendStatic
	}
}

// Options configures embedder construction.
type Options struct {
	Backend Backend

	// Ollama connection details, used when Backend is ollama.
	OllamaHost  string
	OllamaModel string
	Timeout     time.Duration

	// Query-cache sizing. Zero values take the cache package defaults.
	CacheCapacity int
	CacheTTL      time.Duration

	// DisableCache skips the CachedEmbedder wrapper.
	DisableCache bool
}

// New builds the configured embedder, wrapped with the query-embedding
// cache unless disabled. The INKWELL_EMBEDDER environment variable
// overrides the configured backend ("static", "ollama", or "none").
func New(ctx context.Context, opts Options) (Embedder, error) {
	backend := opts.Backend
	if env := os.Getenv("INKWELL_EMBEDDER"); env != "" {
		backend = ParseBackend(env)
	}

	var inner Embedder
	switch backend {
	case BackendNone:
		// Nothing to cache when no embedding ever happens.
		return NewNoopEmbedder(), nil
	case BackendOllama:
		cfg := DefaultOllamaConfig()
		if opts.OllamaHost != "" {
			cfg.Host = opts.OllamaHost
		}
		if host := os.Getenv("INKWELL_OLLAMA_HOST"); host != "" {
			cfg.Host = host
		}
		if opts.OllamaModel != "" {
			cfg.Model = opts.OllamaModel
		}
		if model := os.Getenv("INKWELL_OLLAMA_MODEL"); model != "" {
			cfg.Model = model
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		var err error
		inner, err = NewOllamaEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ollama unavailable: %w\n\nTo fix:\n  1. Start Ollama: ollama serve\n  2. Or use the hash embedder: INKWELL_EMBEDDER=static\n  3. Or keyword-only search: INKWELL_EMBEDDER=none", err)
		}
	default:
		inner = NewStaticEmbedder()
	}

	if opts.DisableCache || isCacheDisabled() {
		return inner, nil
	}
	return NewCachedEmbedder(inner, opts.CacheCapacity, opts.CacheTTL), nil
}

// isCacheDisabled checks if the query-embedding cache is disabled via
// environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("INKWELL_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// ValidBackends returns all recognized backend names.
func ValidBackends() []string {
	return []string{string(BackendStatic), string(BackendOllama), string(BackendNone)}
}
