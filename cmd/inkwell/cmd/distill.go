package cmd

import (
	"github.com/spf13/cobra"
)

// newDistillCmd creates the distill command: catch up on chunks a previous
// run left without embeddings or enrichment.
func newDistillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distill",
		Short: "Embed and enrich any chunks a previous ingest left pending",
		Long: `Distill scans the store for level-1 chunks missing an embedding or
enriched text and processes them in batches. Run it after switching
embedder backends, after an interrupted ingest, or from cron as a
background catch-up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			enriched, embedded := a.orch.Distill(cmd.Context())
			cmd.Printf("Distill complete: %d chunks enriched, %d chunks embedded\n", enriched, embedded)
			return nil
		},
	}
}
