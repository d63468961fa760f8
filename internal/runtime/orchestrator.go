// Package runtime hosts the orchestrator: the owner of one store and one
// embedder, exposing the four verbs (ingest, distill, recall, consolidate)
// the CLI and any future transport layer call. The orchestrator sequences
// chunk → embed → enrich per document and runs the background catch-up that
// drains whatever a previous run left unprocessed.
package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/inkwell-kb/inkwell/internal/capabilities"
	"github.com/inkwell-kb/inkwell/internal/chunk"
	"github.com/inkwell-kb/inkwell/internal/consolidate"
	"github.com/inkwell-kb/inkwell/internal/embed"
	"github.com/inkwell-kb/inkwell/internal/extract"
	"github.com/inkwell-kb/inkwell/internal/ingest"
	"github.com/inkwell-kb/inkwell/internal/resolve"
	"github.com/inkwell-kb/inkwell/internal/store"
)

// distillBatchSize is how many pending chunks one catch-up round pulls.
const distillBatchSize = 50

// Orchestrator coordinates the verbs against one store and one embedder.
type Orchestrator struct {
	tier   capabilities.Tier
	budget ResourceBudget

	store    *store.Store
	embedder embed.Embedder
	sizes    chunk.SizeTable
}

// New builds an orchestrator, discovering the host's capability tier.
func New(st *store.Store, embedder embed.Embedder) *Orchestrator {
	return WithTier(st, embedder, capabilities.Discover().Tier)
}

// WithTier builds an orchestrator with an explicit tier (config override or
// tests).
func WithTier(st *store.Store, embedder embed.Embedder, tier capabilities.Tier) *Orchestrator {
	budget := BudgetForTier(tier)
	slog.Info("orchestrator initialized",
		slog.String("tier", tier.String()),
		slog.Int("memory_budget_mb", budget.MaxMemoryMB),
		slog.Int("max_concurrency", budget.MaxConcurrency))
	return &Orchestrator{tier: tier, budget: budget, store: st, embedder: embedder, sizes: chunk.DefaultSizeTable()}
}

// SetChunkSizes overrides the chunk-size table used by subsequent ingests.
func (o *Orchestrator) SetChunkSizes(sizes chunk.SizeTable) {
	o.sizes = sizes
}

// Tier returns the runtime's capability tier.
func (o *Orchestrator) Tier() capabilities.Tier { return o.tier }

// Budget returns the runtime's resource budget.
func (o *Orchestrator) Budget() ResourceBudget { return o.budget }

// Status reports the runtime's tier, budget, and embedder state.
func (o *Orchestrator) Status(ctx context.Context) Status {
	return Status{
		Tier:           o.tier,
		Budget:         o.budget,
		EmbedderModel:  o.embedder.ModelName(),
		EmbedderOnline: o.embedder.Available(ctx),
	}
}

// IngestFile ingests one file: extract text, hash, store, chunk, embed,
// enrich. Returns nil without error when the file yields no indexable text.
func (o *Orchestrator) IngestFile(ctx context.Context, path string) (*int64, error) {
	ingester := ingest.NewWithSizes(o.store, o.sizes)
	docID, err := ingester.IngestFile(path)
	if err != nil {
		return nil, err
	}
	if docID == nil {
		return nil, nil
	}
	if err := o.processDocument(ctx, *docID); err != nil {
		return docID, err
	}
	return docID, nil
}

// IngestText ingests inline text with the caller's hash and metadata, then
// embeds and enriches its chunks.
func (o *Orchestrator) IngestText(ctx context.Context, text, contentHash string, metadata json.RawMessage, fileExtension string) (*int64, error) {
	ingester := ingest.NewWithSizes(o.store, o.sizes)
	docID, err := ingester.IngestText(text, contentHash, metadata, fileExtension)
	if err != nil {
		return nil, err
	}
	if docID == nil {
		return nil, nil
	}
	if err := o.processDocument(ctx, *docID); err != nil {
		return docID, err
	}
	return docID, nil
}

// processDocument embeds every level-1 chunk (when the embedder is
// available), then enriches every non-enriched chunk and rolls the
// deduplicated topic list up onto the document metadata.
func (o *Orchestrator) processDocument(ctx context.Context, docID int64) error {
	if o.embedder.Available(ctx) {
		chunks, err := o.store.GetChunksForDocument(docID)
		if err != nil {
			return err
		}
		var paragraphs []*store.Chunk
		for _, c := range chunks {
			if c.Level == store.LevelParagraph {
				paragraphs = append(paragraphs, c)
			}
		}
		if len(paragraphs) > 0 {
			count := o.embedChunks(ctx, paragraphs)
			slog.Debug("embedded chunks", slog.Int("count", count), slog.Int64("doc_id", docID))
		}
	}

	chunks, err := o.store.GetChunksForDocument(docID)
	if err != nil {
		return err
	}

	doc, err := o.store.GetDocument(docID)
	if err != nil {
		return err
	}
	source, filename := sourceHints(doc)

	docTopics := o.enrichChunks(ctx, chunks, source, filename)

	if len(docTopics) > 0 {
		patch, err := json.Marshal(map[string]any{
			"topics":            docTopics,
			"extraction_method": "heuristic",
		})
		if err == nil {
			if _, err := o.store.UpdateDocumentMetadata(docID, patch); err != nil {
				slog.Warn("failed to roll up document topics", slog.Any("error", err))
			}
		}
	}
	return nil
}

// embedChunks batch-embeds the given chunks and writes each vector twice:
// the quantized blob via AddChunkEmbedding, and the in-memory matrix row via
// AppendToMatrix. AddChunkEmbedding marks the matrix dirty, so each
// AppendToMatrix call rebuilds the matrix from storage before storing the
// chunk's row. Per-chunk failures are logged and skipped.
func (o *Orchestrator) embedChunks(ctx context.Context, chunks []*store.Chunk) int {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		slog.Warn("embed batch failed", slog.Any("error", err))
		return 0
	}

	count := 0
	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		if err := o.store.AddChunkEmbedding(chunks[i].ID, vec); err != nil {
			slog.Warn("failed to store embedding", slog.Int64("chunk_id", chunks[i].ID), slog.Any("error", err))
			continue
		}
		if err := o.store.AppendToMatrix(chunks[i].ID, vec); err != nil {
			slog.Warn("failed to append to matrix", slog.Int64("chunk_id", chunks[i].ID), slog.Any("error", err))
			continue
		}
		count++
	}
	return count
}

// enrichChunks runs the extractor over every chunk that has no enriched
// text yet, bounded by the tier's concurrency budget, and returns the
// deduplicated topics across the document in first-seen order. Extraction is
// pure CPU, so it parallelizes; the store writes stay serialized behind the
// store's own lock.
func (o *Orchestrator) enrichChunks(ctx context.Context, chunks []*store.Chunk, source, filename string) []string {
	type enrichResult struct {
		idx      int
		enriched string
		topics   []string
	}

	sem := semaphore.NewWeighted(int64(o.budget.MaxConcurrency))
	results := make([]*enrichResult, len(chunks))
	var wg sync.WaitGroup

	for i, c := range chunks {
		if c.EnrichedText != nil {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			defer sem.Release(1)
			result := extract.ExtractAll(text, source, filename)
			results[i] = &enrichResult{idx: i, enriched: result.EnrichedText, topics: result.Topics.Topics}
		}(i, c.Text)
	}
	wg.Wait()

	var docTopics []string
	seen := map[string]bool{}
	for i, r := range results {
		if r == nil {
			continue
		}
		if r.enriched != "" {
			if _, err := o.store.UpdateChunkEnrichedText(chunks[i].ID, r.enriched); err != nil {
				slog.Warn("failed to store enriched text", slog.Int64("chunk_id", chunks[i].ID), slog.Any("error", err))
			}
		}
		for _, topic := range r.topics {
			if !seen[topic] {
				seen[topic] = true
				docTopics = append(docTopics, topic)
			}
		}
	}
	return docTopics
}

// sourceHints pulls the source tag and filename out of document metadata
// for the extractor's content-type heuristics.
func sourceHints(doc *store.Document) (source, filename string) {
	if doc == nil || len(doc.Metadata) == 0 {
		return "", ""
	}
	var meta struct {
		Source   string `json:"source"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(doc.Metadata, &meta); err != nil {
		return "", ""
	}
	return meta.Source, meta.Filename
}

// Distill is the background catch-up verb: embed every level-1 chunk that
// has no embedding, then enrich every level-1 chunk that has no enriched
// text, in batches. Per-item failures are logged and skipped so one bad
// chunk never poisons the queue. Returns (enrichedCount, embeddedCount).
func (o *Orchestrator) Distill(ctx context.Context) (int, int) {
	enrichedTotal := 0
	embeddedTotal := 0

	if o.embedder.Available(ctx) {
		for {
			chunks, err := o.store.ChunksWithoutEmbedding(distillBatchSize)
			if err != nil {
				slog.Error("failed to get chunks for embedding", slog.Any("error", err))
				break
			}
			if len(chunks) == 0 {
				break
			}
			embedded := o.embedChunks(ctx, chunks)
			embeddedTotal += embedded
			if embedded == 0 {
				// Nothing in the batch could be embedded; bail rather than
				// re-pull the same chunks forever.
				break
			}
		}
	}

	for {
		chunks, err := o.store.ChunksWithoutEnrichment(distillBatchSize)
		if err != nil {
			slog.Error("failed to get chunks for extraction", slog.Any("error", err))
			break
		}
		if len(chunks) == 0 {
			break
		}
		progressed := 0
		for _, c := range chunks {
			result := extract.ExtractAll(c.Text, "", "")
			if result.EnrichedText == "" {
				continue
			}
			if _, err := o.store.UpdateChunkEnrichedText(c.ID, result.EnrichedText); err != nil {
				slog.Warn("failed to enrich chunk", slog.Int64("chunk_id", c.ID), slog.Any("error", err))
				continue
			}
			enrichedTotal++
			progressed++
		}
		if progressed == 0 {
			// Nothing in the batch could be enriched; bail rather than
			// re-pull the same chunks forever.
			break
		}
	}

	if enrichedTotal > 0 || embeddedTotal > 0 {
		slog.Info("distill complete",
			slog.Int("enriched", enrichedTotal),
			slog.Int("embedded", embeddedTotal))
	}
	return enrichedTotal, embeddedTotal
}

// Recall resolves a query with tier-aware strategy selection. A non-nil
// kind forces that strategy regardless of tier.
func (o *Orchestrator) Recall(ctx context.Context, q resolve.Query, kind *resolve.Kind) (resolve.Result, error) {
	var emb interface {
		Embed(ctx context.Context, text string) ([]float32, error)
	}
	if o.embedder.Available(ctx) {
		emb = o.embedder
	}
	if kind != nil {
		return resolve.ResolveAs(ctx, o.store, emb, q, *kind)
	}
	return resolve.Resolve(ctx, o.store, emb, q, o.tier)
}

// Consolidate runs the maintenance pipeline at the runtime's tier.
func (o *Orchestrator) Consolidate() consolidate.Report {
	return consolidate.Run(o.store, o.tier)
}
