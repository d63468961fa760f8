// Package resolve answers a recall query by picking a resolution strategy
// appropriate to the runtime's capability tier and running it against the
// store: keyword-only BM25, entity-boosted keyword, or a genuinely fused
// hybrid (BM25 + vector, combined by reciprocal rank fusion).
package resolve

import (
	"encoding/json"

	"github.com/inkwell-kb/inkwell/internal/capabilities"
)

// Kind identifies which resolution strategy produced a ResolveResult.
type Kind int

const (
	// Keyword runs BM25 full-text search only.
	Keyword Kind = iota
	// Hybrid fuses BM25 and vector search results by reciprocal rank fusion.
	Hybrid
	// Entity runs keyword search and boosts hits whose text contains the
	// query's own terms.
	Entity
	// Vector is reserved for an embedding-only nearest-neighbor strategy.
	Vector
	// Timeline is reserved for a recency-ordered resolution strategy.
	Timeline
	// Answer is reserved for an LLM-synthesized answer strategy.
	Answer
)

func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Hybrid:
		return "hybrid"
	case Entity:
		return "entity"
	case Vector:
		return "vector"
	case Timeline:
		return "timeline"
	case Answer:
		return "answer"
	default:
		return "unknown"
	}
}

// Filters narrow a recall query by the coarse document tags the extractor
// attaches at ingest time.
type Filters struct {
	ContentType string
	Domain      string
}

// Query is a recall request: free text, plus how many results to return and
// any filters to narrow by.
type Query struct {
	Text    string
	TopK    int
	Filters Filters
}

// Item is one resolved chunk, with its fusion-or-boost-adjusted score.
type Item struct {
	ChunkID      int64
	DocID        int64
	Text         string
	Score        float64
	EnrichedText *string
	Metadata     json.RawMessage
}

// Result is the outcome of a Resolve call: which strategy ran and what it
// found.
type Result struct {
	Strategy Kind
	Items    []Item
}

// SelectKind picks a resolution strategy for the runtime's capability tier.
// Base has no vector index, so it always resolves by keyword; every higher
// tier can fuse BM25 with vector search.
func SelectKind(tier capabilities.Tier) Kind {
	if tier <= capabilities.Base {
		return Keyword
	}
	return Hybrid
}
