// Package consolidate runs the store's maintenance pipeline: prune orphaned
// chunks, remove duplicate documents, and evict the oldest documents when
// the store is over its tier's capacity. A failing stage logs and reports
// zero; the pipeline always runs every stage.
package consolidate

import (
	"log/slog"
	"time"

	"github.com/inkwell-kb/inkwell/internal/capabilities"
	"github.com/inkwell-kb/inkwell/internal/store"
)

// Thresholds are the tier-adaptive consolidation limits.
type Thresholds struct {
	// MaxDocuments is the document count above which eviction kicks in.
	MaxDocuments int

	// MaxChunks is the tier's chunk limit. Eviction compares only the
	// document count against MaxDocuments; MaxChunks is not consulted.
	MaxChunks int

	// DedupThreshold is reserved for semantic near-duplicate detection.
	// Deduplication today is exact content-hash equality only; the field is
	// kept so the per-tier table stays complete.
	DedupThreshold float64
}

// ThresholdsForTier returns the consolidation limits for a capability tier.
func ThresholdsForTier(tier capabilities.Tier) Thresholds {
	switch tier {
	case capabilities.Full:
		return Thresholds{MaxDocuments: 100_000, MaxChunks: 1_000_000, DedupThreshold: 0.88}
	case capabilities.Advanced:
		return Thresholds{MaxDocuments: 20_000, MaxChunks: 200_000, DedupThreshold: 0.90}
	case capabilities.Enhanced:
		return Thresholds{MaxDocuments: 5_000, MaxChunks: 50_000, DedupThreshold: 0.92}
	default:
		return Thresholds{MaxDocuments: 1_000, MaxChunks: 10_000, DedupThreshold: 0.95}
	}
}

// Report is the outcome of one pipeline run.
type Report struct {
	OrphansPruned     int64         `json:"orphansPruned"`
	DuplicatesRemoved int64         `json:"duplicatesRemoved"`
	DocumentsEvicted  int64         `json:"documentsEvicted"`
	Duration          time.Duration `json:"durationMs"`
}

// maintainer is the subset of *store.Store the pipeline needs.
type maintainer interface {
	PruneOrphanChunks() (int64, error)
	RemoveDuplicateDocuments() (int64, error)
	EvictOldestDocuments(n int) (int64, error)
	CountDocuments() (int64, error)
}

var _ maintainer = (*store.Store)(nil)

// Run executes the three consolidation stages in order against st using the
// thresholds for tier.
func Run(st maintainer, tier capabilities.Tier) Report {
	start := time.Now()
	thresholds := ThresholdsForTier(tier)
	var report Report

	slog.Info("starting consolidation pipeline", slog.String("tier", tier.String()))

	report.OrphansPruned = pruneOrphans(st)
	report.DuplicatesRemoved = deduplicate(st)
	report.DocumentsEvicted = evict(st, thresholds)
	report.Duration = time.Since(start)

	slog.Info("consolidation complete",
		slog.Int64("pruned", report.OrphansPruned),
		slog.Int64("deduped", report.DuplicatesRemoved),
		slog.Int64("evicted", report.DocumentsEvicted),
		slog.Duration("duration", report.Duration))

	return report
}

func pruneOrphans(st maintainer) int64 {
	count, err := st.PruneOrphanChunks()
	if err != nil {
		slog.Warn("failed to prune orphans", slog.Any("error", err))
		return 0
	}
	if count > 0 {
		slog.Info("pruned orphan chunks", slog.Int64("count", count))
	}
	return count
}

func deduplicate(st maintainer) int64 {
	count, err := st.RemoveDuplicateDocuments()
	if err != nil {
		slog.Warn("failed to deduplicate", slog.Any("error", err))
		return 0
	}
	if count > 0 {
		slog.Info("removed duplicate documents", slog.Int64("count", count))
	}
	return count
}

// evict removes exactly current - max oldest documents when over capacity.
func evict(st maintainer, thresholds Thresholds) int64 {
	docCount, err := st.CountDocuments()
	if err != nil {
		slog.Warn("failed to count documents for eviction", slog.Any("error", err))
		return 0
	}
	if docCount <= int64(thresholds.MaxDocuments) {
		return 0
	}

	excess := int(docCount) - thresholds.MaxDocuments
	count, err := st.EvictOldestDocuments(excess)
	if err != nil {
		slog.Warn("failed to evict", slog.Any("error", err))
		return 0
	}
	if count > 0 {
		slog.Info("evicted oldest documents", slog.Int64("count", count))
	}
	return count
}
