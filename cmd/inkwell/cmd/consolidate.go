package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// newConsolidateCmd creates the consolidate command: run the maintenance
// pipeline (prune orphans, dedup, evict over capacity).
func newConsolidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consolidate",
		Short: "Run store maintenance: prune orphans, dedup, evict over capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report := a.orch.Consolidate()
			cmd.Printf("Consolidation complete in %s:\n", report.Duration.Round(time.Millisecond))
			cmd.Printf("  orphan chunks pruned:  %d\n", report.OrphansPruned)
			cmd.Printf("  duplicates removed:    %d\n", report.DuplicatesRemoved)
			cmd.Printf("  documents evicted:     %d\n", report.DocumentsEvicted)
			return nil
		},
	}
}
