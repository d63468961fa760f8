// Package embed provides the embedder abstraction the orchestrator and
// resolver consume: embed one text, embed a batch, report the dimension,
// report availability. A backend that is unavailable signals BM25-only
// fallback rather than failing recall.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultDimensions is the embedding dimension the store is opened with
	// unless a backend reports otherwise.
	DefaultDimensions = 384

	// DefaultBatchSize is the batch size for embedding requests.
	DefaultBatchSize = 32

	// MaxBatchSize caps batch requests so one oversized distill batch can't
	// exhaust the backend.
	MaxBatchSize = 256

	// DefaultTimeout bounds a single embedding request.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retry attempts for transient
	// backend failures.
	DefaultMaxRetries = 3
)

// Embedder generates vector embeddings for text. Implementations may hold a
// non-reentrant model session and are therefore serialized internally.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready. When false, callers
	// degrade hybrid search to keyword-only.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
