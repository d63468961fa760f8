package store

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/inkwell-kb/inkwell/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "test", 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func hashPtr(s string) *string { return &s }

func TestAddAndGetDocument(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddDocument("hello world", AddDocumentOptions{})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	doc, err := s.GetDocument(id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "hello world", doc.Text)
}

func TestDuplicateContentHash(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AddDocument("one", AddDocumentOptions{ContentHash: hashPtr("abc123")})
	require.NoError(t, err)

	_, err = s.AddDocument("two", AddDocumentOptions{ContentHash: hashPtr("abc123")})
	require.Error(t, err)
	ie, ok := err.(*ierrors.InkwellError)
	require.True(t, ok)
	assert.Equal(t, ierrors.KindDuplicateContent, ie.Kind)
	assert.Equal(t, "abc123", ie.Hash)
}

func TestFindDocumentByHash(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddDocument("findme", AddDocumentOptions{ContentHash: hashPtr("findhash")})
	require.NoError(t, err)

	doc, err := s.FindDocumentByHash("findhash")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, id, doc.ID)

	missing, err := s.FindDocumentByHash("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddChunkAndBM25Search(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc body", AddDocumentOptions{})
	require.NoError(t, err)

	_, err = s.AddChunk(docID, "the quick brown fox jumps over the lazy dog", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	_, err = s.AddChunk(docID, "completely unrelated sentence about oceans", 1, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)

	hits, err := s.BM25Search("fox dog", LevelParagraph, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Text, "fox")
}

func TestEnrichedTextSearch(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc", AddDocumentOptions{})
	require.NoError(t, err)
	chunkID, err := s.AddChunk(docID, "plain body text", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)

	ok, err := s.UpdateChunkEnrichedText(chunkID, "plain body text\n\nTopic: astronomy")
	require.NoError(t, err)
	assert.True(t, ok)

	hits, err := s.BM25Search("astronomy", LevelParagraph, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, chunkID, hits[0].ChunkID)
}

func TestDeleteDocumentCascades(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("to delete", AddDocumentOptions{})
	require.NoError(t, err)
	chunkID, err := s.AddChunk(docID, "chunk body", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddChunkEmbedding(chunkID, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}))

	deleted, err := s.DeleteDocument(docID)
	require.NoError(t, err)
	assert.True(t, deleted)

	chunks, err := s.GetChunksForDocument(docID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	hits, err := s.BM25Search("chunk", LevelParagraph, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDocumentMetadataUpdate(t *testing.T) {
	s := openTestStore(t)

	raw, _ := json.Marshal(map[string]any{"source": "import"})
	id, err := s.AddDocument("doc", AddDocumentOptions{Metadata: raw})
	require.NoError(t, err)

	patch, _ := json.Marshal(map[string]any{"topic": "science"})
	ok, err := s.UpdateDocumentMetadata(id, patch)
	require.NoError(t, err)
	assert.True(t, ok)

	doc, err := s.GetDocument(id)
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(doc.Metadata, &meta))
	assert.Equal(t, "import", meta["source"])
	assert.Equal(t, "science", meta["topic"])
	assert.NotNil(t, meta["metadata_updated_at"])
	assert.NotNil(t, doc.MetadataUpdated)
}

func TestChunksWithoutEnrichment(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc", AddDocumentOptions{})
	require.NoError(t, err)
	_, err = s.AddChunk(docID, "needs enrichment", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	enrichedText := "already enriched"
	_, err = s.AddChunk(docID, "already done", 1, LevelParagraph, AddChunkOptions{EnrichedText: &enrichedText})
	require.NoError(t, err)

	pending, err := s.ChunksWithoutEnrichment(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "needs enrichment", pending[0].Text)
}

func TestChunksWithoutEmbedding(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc", AddDocumentOptions{})
	require.NoError(t, err)
	withID, err := s.AddChunk(docID, "has embedding", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	_, err = s.AddChunk(docID, "no embedding", 1, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)

	require.NoError(t, s.AddChunkEmbedding(withID, []float32{1, 2, 3, 4, 5, 6, 7, 8}))

	pending, err := s.ChunksWithoutEmbedding(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "no embedding", pending[0].Text)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc", AddDocumentOptions{})
	require.NoError(t, err)
	chunkID, err := s.AddChunk(docID, "body", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddChunkEmbedding(chunkID, make([]float32, 8)))
	require.NoError(t, s.AppendToMatrix(chunkID, []float32{1, 2, 3, 4, 5, 6, 7, 8}))

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalDocuments)
	assert.Equal(t, int64(1), stats.TotalChunks)
	assert.Equal(t, int64(1), stats.ParagraphChunks)
	assert.Equal(t, int64(1), stats.EmbeddingsStored)
	assert.True(t, stats.MatrixLoaded)
	assert.Equal(t, 1, stats.MatrixRows)
	assert.Contains(t, stats.DBPath, "test.db")
}

func TestVectorSearchWithEmbeddings(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc", AddDocumentOptions{})
	require.NoError(t, err)

	matchID, err := s.AddChunk(docID, "matching vector", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddChunkEmbedding(matchID, []float32{1, 0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, s.AppendToMatrix(matchID, []float32{1, 0, 0, 0, 0, 0, 0, 0}))

	otherID, err := s.AddChunk(docID, "orthogonal vector", 1, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddChunkEmbedding(otherID, []float32{0, 1, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, s.AppendToMatrix(otherID, []float32{0, 1, 0, 0, 0, 0, 0, 0}))

	hits, err := s.VectorSearch([]float32{1, 0, 0, 0, 0, 0, 0, 0}, LevelParagraph, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, matchID, hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-3)
}

func TestMatrixDirtyAfterDelete(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc", AddDocumentOptions{})
	require.NoError(t, err)
	chunkID, err := s.AddChunk(docID, "body", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddChunkEmbedding(chunkID, []float32{1, 0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, s.AppendToMatrix(chunkID, []float32{1, 0, 0, 0, 0, 0, 0, 0}))

	_, err = s.DeleteDocument(docID)
	require.NoError(t, err)

	hits, err := s.VectorSearch([]float32{1, 0, 0, 0, 0, 0, 0, 0}, LevelParagraph, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestReciprocalRankFusionOrdering(t *testing.T) {
	bm25 := []SearchHit{{ChunkID: 1, Text: "a"}, {ChunkID: 2, Text: "b"}}
	vector := []SearchHit{{ChunkID: 2, Text: "b"}, {ChunkID: 3, Text: "c"}}

	fused := ReciprocalRankFusion(bm25, vector, DefaultRRFConstant)
	require.Len(t, fused, 3)
	assert.Equal(t, int64(2), fused[0].ChunkID) // appears in both lists, ranks first

	k := float64(DefaultRRFConstant)
	scores := map[int64]float64{}
	for _, h := range fused {
		scores[h.ChunkID] = h.Score
	}
	// Chunk 2 sits at rank 1 in the first list and rank 0 in the second.
	assert.InDelta(t, 1/(k+2)+1/(k+1), scores[2], 1e-12)
	// Chunks present in only one list score a single reciprocal term.
	assert.InDelta(t, 1/(k+1), scores[1], 1e-12)
	assert.InDelta(t, 1/(k+2), scores[3], 1e-12)
}

func TestReciprocalRankFusionFirstListWinsFields(t *testing.T) {
	enrichedA := "from bm25"
	enrichedB := "from vector"
	bm25 := []SearchHit{{ChunkID: 9, Text: "bm25 text", EnrichedText: &enrichedA}}
	vector := []SearchHit{{ChunkID: 9, Text: "vector text", EnrichedText: &enrichedB}}

	fused := ReciprocalRankFusion(bm25, vector, DefaultRRFConstant)
	require.Len(t, fused, 1)
	assert.Equal(t, "bm25 text", fused[0].Text)
	assert.Equal(t, "from bm25", *fused[0].EnrichedText)
}

func TestHybridSearch(t *testing.T) {
	s := openTestStore(t)

	docID, err := s.AddDocument("doc", AddDocumentOptions{})
	require.NoError(t, err)

	id1, err := s.AddChunk(docID, "rust programming language", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddChunkEmbedding(id1, []float32{1, 0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, s.AppendToMatrix(id1, []float32{1, 0, 0, 0, 0, 0, 0, 0}))

	id2, err := s.AddChunk(docID, "go programming language", 1, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddChunkEmbedding(id2, []float32{0, 1, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, s.AppendToMatrix(id2, []float32{0, 1, 0, 0, 0, 0, 0, 0}))

	hits, err := s.HybridSearch("programming language", []float32{1, 0, 0, 0, 0, 0, 0, 0}, LevelParagraph, 10, 10, DefaultRRFConstant)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, id1, hits[0].ChunkID)
}

func TestPagination(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.AddDocument("doc", AddDocumentOptions{})
		require.NoError(t, err)
	}
	count, err := s.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestRemoveDuplicateDocuments(t *testing.T) {
	// content_hash is UNIQUE in the current schema, so genuine duplicates
	// only arise from a database written before the constraint existed.
	// Simulate one: pre-create the documents table without UNIQUE, then let
	// Open adopt it (CREATE TABLE IF NOT EXISTS leaves it alone).
	dir := t.TempDir()
	raw, err := sql.Open("sqlite", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		metadata_json TEXT,
		content_hash TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER,
		metadata_updated_at INTEGER
	)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	s, err := Open(dir, "test", 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	oldID, err := s.AddDocument("doc1", AddDocumentOptions{ContentHash: hashPtr("shared"), CreatedAt: int64Ptr(1)})
	require.NoError(t, err)
	_, err = s.AddChunk(oldID, "chunk1", 0, LevelParagraph, AddChunkOptions{})
	require.NoError(t, err)
	newID, err := s.AddDocument("doc1-dup", AddDocumentOptions{ContentHash: hashPtr("shared"), CreatedAt: int64Ptr(2)})
	require.NoError(t, err)
	_, err = s.AddDocument("unrelated", AddDocumentOptions{ContentHash: hashPtr("solo")})
	require.NoError(t, err)

	removed, err := s.RemoveDuplicateDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// Only the newest-id row per hash survives; its duplicate's chunks are
	// pruned as orphans.
	gone, err := s.GetDocument(oldID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := s.GetDocument(newID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	remaining, err := s.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)

	chunks, err := s.GetChunksForDocument(oldID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestEvictOldestDocuments(t *testing.T) {
	s := openTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.AddDocument("doc", AddDocumentOptions{CreatedAt: int64Ptr(int64(i))})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	evicted, err := s.EvictOldestDocuments(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), evicted)

	remaining, err := s.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	doc, err := s.GetDocument(ids[2])
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestSanitizeFTSQuery(t *testing.T) {
	assert.Equal(t, `"fox" OR "dog"`, sanitizeFTSQuery("fox dog"))
	assert.Equal(t, "", sanitizeFTSQuery("   "))
	assert.Equal(t, `"hello"`, sanitizeFTSQuery(`"hello"`))
}

func int64Ptr(v int64) *int64 { return &v }
