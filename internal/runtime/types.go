package runtime

import "github.com/inkwell-kb/inkwell/internal/capabilities"

// Verb names one of the orchestrator's four operations.
type Verb string

const (
	VerbIngest      Verb = "ingest"
	VerbDistill     Verb = "distill"
	VerbRecall      Verb = "recall"
	VerbConsolidate Verb = "consolidate"
)

// ResourceBudget bounds what one orchestrator instance may consume. The
// concurrency bound limits how many of a document's chunks are enriched at
// once during ingest (embedding is one batch call, and distill runs its
// batches sequentially); the memory figures are advisory limits surfaced to status output.
type ResourceBudget struct {
	MaxMemoryMB    int `json:"maxMemoryMb"`
	MaxGPUMemoryMB int `json:"maxGpuMemoryMb"`
	MaxConcurrency int `json:"maxConcurrency"`
}

// BudgetForTier returns the resource budget for a capability tier.
func BudgetForTier(tier capabilities.Tier) ResourceBudget {
	switch tier {
	case capabilities.Full:
		return ResourceBudget{MaxMemoryMB: 2048, MaxGPUMemoryMB: 8192, MaxConcurrency: 8}
	case capabilities.Advanced:
		return ResourceBudget{MaxMemoryMB: 1024, MaxGPUMemoryMB: 4096, MaxConcurrency: 4}
	case capabilities.Enhanced:
		return ResourceBudget{MaxMemoryMB: 512, MaxGPUMemoryMB: 2048, MaxConcurrency: 2}
	default:
		return ResourceBudget{MaxMemoryMB: 256, MaxGPUMemoryMB: 0, MaxConcurrency: 1}
	}
}

// Status is a point-in-time view of the runtime.
type Status struct {
	Tier           capabilities.Tier `json:"tier"`
	Budget         ResourceBudget    `json:"budget"`
	EmbedderModel  string            `json:"embedderModel"`
	EmbedderOnline bool              `json:"embedderOnline"`
}
