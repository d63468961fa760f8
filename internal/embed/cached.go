package embed

import (
	"context"
	"time"

	"github.com/inkwell-kb/inkwell/internal/querycache"
)

// CachedEmbedder wraps an Embedder with the query-embedding cache so a
// repeated recall doesn't pay for re-embedding the same text. The cache is
// keyed by the verbatim query string; entries expire after the cache's TTL
// and the least-recently-used entry is evicted at capacity.
type CachedEmbedder struct {
	inner Embedder
	cache *querycache.Cache
}

// Verify interface implementation at compile time.
var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with a cache of the given capacity and TTL.
func NewCachedEmbedder(inner Embedder, capacity int, ttl time.Duration) *CachedEmbedder {
	if capacity <= 0 {
		capacity = querycache.DefaultCapacity
	}
	if ttl <= 0 {
		ttl = querycache.DefaultTTL
	}
	return &CachedEmbedder{inner: inner, cache: querycache.New(capacity, ttl)}
}

// NewCachedEmbedderWithDefaults wraps inner with the default cache size and
// TTL.
func NewCachedEmbedderWithDefaults(inner Embedder) *CachedEmbedder {
	return NewCachedEmbedder(inner, querycache.DefaultCapacity, querycache.DefaultTTL)
}

// Embed returns the cached embedding when present, otherwise computes and
// caches it. A nil result from the inner embedder (unavailable backend) is
// never cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if vec != nil {
		c.cache.Put(text, vec)
	}
	return vec, nil
}

// EmbedBatch embeds texts, serving each from cache where possible and
// batch-embedding only the misses.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missIndices := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(text); ok {
			results[i] = vec
		} else {
			missIndices = append(missIndices, i)
			missTexts = append(missTexts, text)
		}
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	embedded, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIndices {
		results[idx] = embedded[j]
		if embedded[j] != nil {
			c.cache.Put(texts[idx], embedded[j])
		}
	}
	return results, nil
}

// Dimensions returns the embedding dimension (passthrough to inner).
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// ModelName returns the model identifier (passthrough to inner).
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Available reports readiness (passthrough to inner).
func (c *CachedEmbedder) Available(ctx context.Context) bool { return c.inner.Available(ctx) }

// Close closes the inner embedder.
func (c *CachedEmbedder) Close() error { return c.inner.Close() }

// Inner returns the wrapped embedder.
func (c *CachedEmbedder) Inner() Embedder { return c.inner }

// CacheLen reports how many query embeddings are currently cached.
func (c *CachedEmbedder) CacheLen() int { return c.cache.Len() }
