package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/inkwell-kb/inkwell/internal/ui"
)

// newStatusCmd creates the status command: tier, budget, and store stats,
// as a live dashboard on a TTY or one plain snapshot otherwise.
func newStatusCmd() *cobra.Command {
	var plain bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tier, resource budget, and store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			fetch := func() ui.StatusSnapshot {
				stats, err := a.store.GetStats()
				return ui.StatusSnapshot{
					Runtime: a.orch.Status(ctx),
					Stats:   stats,
					Err:     err,
				}
			}

			if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
				return ui.RenderStatusPlain(cmd.OutOrStdout(), fetch())
			}
			return ui.RunStatusTUI(fetch, noColor)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print one snapshot instead of the live dashboard")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors in the dashboard")

	return cmd
}
