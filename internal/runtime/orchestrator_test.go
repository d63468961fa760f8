package runtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-kb/inkwell/internal/capabilities"
	"github.com/inkwell-kb/inkwell/internal/embed"
	ierrors "github.com/inkwell-kb/inkwell/internal/errors"
	"github.com/inkwell-kb/inkwell/internal/ingest"
	"github.com/inkwell-kb/inkwell/internal/resolve"
	"github.com/inkwell-kb/inkwell/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), "test", embed.DefaultDimensions)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newOrchestrator(t *testing.T, tier capabilities.Tier) (*Orchestrator, *store.Store) {
	t.Helper()
	st := openStore(t)
	return WithTier(st, embed.NewStaticEmbedder(), tier), st
}

func TestResourceBudgets(t *testing.T) {
	base := BudgetForTier(capabilities.Base)
	assert.Equal(t, 256, base.MaxMemoryMB)
	assert.Equal(t, 0, base.MaxGPUMemoryMB)
	assert.Equal(t, 1, base.MaxConcurrency)

	full := BudgetForTier(capabilities.Full)
	assert.Equal(t, 2048, full.MaxMemoryMB)
	assert.Equal(t, 8192, full.MaxGPUMemoryMB)
	assert.Equal(t, 8, full.MaxConcurrency)
}

func TestWithTier(t *testing.T) {
	orch, _ := newOrchestrator(t, capabilities.Enhanced)
	assert.Equal(t, capabilities.Enhanced, orch.Tier())
	assert.Equal(t, 512, orch.Budget().MaxMemoryMB)
}

func TestStatus(t *testing.T) {
	orch, _ := newOrchestrator(t, capabilities.Advanced)
	status := orch.Status(context.Background())

	assert.Equal(t, capabilities.Advanced, status.Tier)
	assert.Equal(t, 1024, status.Budget.MaxMemoryMB)
	assert.Equal(t, "static", status.EmbedderModel)
	assert.True(t, status.EmbedderOnline)
}

func TestIngestTextStoresEmbedsAndEnriches(t *testing.T) {
	orch, st := newOrchestrator(t, capabilities.Full)

	text := "Machine learning is transforming how we build software applications."
	meta, _ := json.Marshal(map[string]any{"source": "test"})
	docID, err := orch.IngestText(context.Background(), text, ingest.ContentHash(text), meta, "")
	require.NoError(t, err)
	require.NotNil(t, docID)

	doc, err := st.GetDocument(*docID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Contains(t, doc.Text, "Machine learning")

	chunks, err := st.GetChunksForDocument(*docID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Every chunk got enriched and the paragraph chunks got embeddings.
	for _, c := range chunks {
		require.NotNil(t, c.EnrichedText, "chunk %d should be enriched", c.ID)
	}
	pending, err := st.ChunksWithoutEmbedding(100)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Topic rollup landed in document metadata.
	doc, err = st.GetDocument(*docID)
	require.NoError(t, err)
	var rolled struct {
		Topics           []string `json:"topics"`
		ExtractionMethod string   `json:"extraction_method"`
	}
	require.NoError(t, json.Unmarshal(doc.Metadata, &rolled))
	assert.NotEmpty(t, rolled.Topics)
	assert.Equal(t, "heuristic", rolled.ExtractionMethod)
}

func TestIngestDuplicateHashFails(t *testing.T) {
	orch, st := newOrchestrator(t, capabilities.Base)

	text := "Hello world"
	hash := ingest.ContentHash(text)

	first, err := orch.IngestText(context.Background(), text, hash, nil, "")
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = orch.IngestText(context.Background(), text, hash, nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ierrors.DuplicateContent(hash))

	n, err := st.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDistillCatchesUpPendingChunks(t *testing.T) {
	orch, st := newOrchestrator(t, capabilities.Base)

	docID, err := st.AddDocument("Test doc", store.AddDocumentOptions{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := st.AddChunk(docID, "Python is a programming language used for data science and machine learning", i, store.LevelParagraph, store.AddChunkOptions{})
		require.NoError(t, err)
	}

	enriched, embedded := orch.Distill(context.Background())
	assert.Equal(t, 3, enriched)
	assert.Equal(t, 3, embedded)

	// A second pass finds nothing left to do.
	enriched, embedded = orch.Distill(context.Background())
	assert.Zero(t, enriched)
	assert.Zero(t, embedded)
}

func TestDistillWithUnavailableEmbedderOnlyEnriches(t *testing.T) {
	st := openStore(t)
	orch := WithTier(st, embed.NewNoopEmbedder(), capabilities.Base)

	docID, err := st.AddDocument("Test doc", store.AddDocumentOptions{})
	require.NoError(t, err)
	_, err = st.AddChunk(docID, "Budget planning for the quarterly tax filing deadline", 0, store.LevelParagraph, store.AddChunkOptions{})
	require.NoError(t, err)

	enriched, embedded := orch.Distill(context.Background())
	assert.Equal(t, 1, enriched)
	assert.Zero(t, embedded)
}

func TestRecallFindsIngestedContent(t *testing.T) {
	orch, _ := newOrchestrator(t, capabilities.Full)

	for _, text := range []string{
		"Rust is a systems programming language",
		"Python is great for data science",
	} {
		_, err := orch.IngestText(context.Background(), text, ingest.ContentHash(text), nil, "")
		require.NoError(t, err)
	}

	result, err := orch.Recall(context.Background(), resolve.Query{Text: "Rust programming", TopK: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, resolve.Hybrid, result.Strategy)
	require.NotEmpty(t, result.Items)
	assert.Contains(t, result.Items[0].Text, "Rust")
}

func TestRecallExplicitKindWins(t *testing.T) {
	orch, _ := newOrchestrator(t, capabilities.Full)

	text := "Rust is a systems programming language"
	_, err := orch.IngestText(context.Background(), text, ingest.ContentHash(text), nil, "")
	require.NoError(t, err)

	kind := resolve.Keyword
	result, err := orch.Recall(context.Background(), resolve.Query{Text: "Rust", TopK: 5}, &kind)
	require.NoError(t, err)
	assert.Equal(t, resolve.Keyword, result.Strategy)
}

func TestRecallBaseTierUsesKeyword(t *testing.T) {
	orch, _ := newOrchestrator(t, capabilities.Base)

	text := "Rust is a systems programming language"
	_, err := orch.IngestText(context.Background(), text, ingest.ContentHash(text), nil, "")
	require.NoError(t, err)

	result, err := orch.Recall(context.Background(), resolve.Query{Text: "Rust", TopK: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, resolve.Keyword, result.Strategy)
}

func TestConsolidateRunsAtRuntimeTier(t *testing.T) {
	orch, _ := newOrchestrator(t, capabilities.Base)

	report := orch.Consolidate()
	assert.Zero(t, report.OrphansPruned)
	assert.Zero(t, report.DuplicatesRemoved)
	assert.Zero(t, report.DocumentsEvicted)
}
