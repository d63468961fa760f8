// Package querycache caches query embeddings so a repeated search doesn't
// pay for re-embedding the same text.
package querycache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity is the number of distinct queries kept resident.
const DefaultCapacity = 1000

// DefaultTTL is how long a cached embedding stays valid.
const DefaultTTL = time.Hour

// Cache is a thread-safe, capacity-bounded, TTL-expiring cache of query
// text to its embedding vector. Both eviction paths (capacity and TTL) are
// handled by the underlying expirable LRU; Get promotes the hit to
// most-recently-used.
type Cache struct {
	lru *expirable.LRU[string, []float32]
}

// New builds a cache holding at most capacity entries, each valid for ttl.
func New(capacity int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, []float32](capacity, nil, ttl)}
}

// Default builds a cache with DefaultCapacity entries and DefaultTTL.
func Default() *Cache {
	return New(DefaultCapacity, DefaultTTL)
}

// Get returns the cached embedding for query, or ok=false on a miss or an
// expired entry.
func (c *Cache) Get(query string) ([]float32, bool) {
	return c.lru.Get(query)
}

// Put inserts or refreshes the embedding for query.
func (c *Cache) Put(query string, embedding []float32) {
	c.lru.Add(query, embedding)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.lru.Purge()
}
