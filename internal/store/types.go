// Package store is the Hybrid Retrieval Store: the durable home for
// documents, the two-level chunk hierarchy, int8-quantized embeddings, and
// the full-text index kept in sync with chunk mutations by SQLite triggers.
// It is the only retrieval oracle — BM25, vector, and hybrid (RRF-fused)
// search all live here, alongside the consolidation primitives the
// orchestrator composes into its pipeline.
package store

import "encoding/json"

// Level distinguishes document-structure sections from searchable
// paragraphs. Only level-1 chunks participate in search and carry
// embeddings.
const (
	LevelSection   = 0
	LevelParagraph = 1
)

// Document is a row in the documents table.
type Document struct {
	ID              int64
	Text            string
	Metadata        json.RawMessage
	ContentHash     *string
	CreatedAt       int64
	UpdatedAt       *int64
	MetadataUpdated *int64
}

// Chunk is a row in the chunks table. Level 0 chunks are document-structure
// sections; level 1 chunks are the paragraph-sized searchable units.
type Chunk struct {
	ID             int64
	DocID          int64
	ParentChunkID  *int64
	Text           string
	EnrichedText   *string
	ChunkIndex     int
	CharStart      *int
	CharEnd        *int
	Level          int
	Metadata       json.RawMessage
	CreatedAt      int64
}

// SearchHit is a hydrated chunk returned from BM25, vector, or hybrid
// search. Scores are only comparable within the result list they came from.
type SearchHit struct {
	ChunkID        int64
	DocID          int64
	Text           string
	Score          float64
	Level          int
	Metadata       json.RawMessage
	EnrichedText   *string
	ParentChunkID  *int64
	ChunkIndex     int
	CharStart      *int
	CharEnd        *int
}

// Stats aggregates store-wide counts and matrix state, surfaced by the
// status command and get_stats().
type Stats struct {
	TotalDocuments     int64
	TotalChunks        int64
	SectionChunks      int64
	ParagraphChunks    int64
	EmbeddingsStored   int64
	EmbeddingDimension int
	DBPath             string
	DBSizeMB           float64
	MatrixLoaded       bool
	MatrixRows         int
}

// AddDocumentOptions carries the optional fields accepted by AddDocument.
type AddDocumentOptions struct {
	Metadata    json.RawMessage
	ContentHash *string
	CreatedAt   *int64
}

// AddChunkOptions carries the optional fields accepted by AddChunk.
type AddChunkOptions struct {
	ParentChunkID *int64
	CharStart     *int
	CharEnd       *int
	EnrichedText  *string
	Metadata      json.RawMessage
	CreatedAt     *int64
}
