package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-kb/inkwell/internal/migrate"
)

// newMigrateCmd creates the migrate command: validate a foreign data
// directory and optionally import it into this install's data root.
func newMigrateCmd() *cobra.Command {
	var validateOnly bool
	var dbName string

	cmd := &cobra.Command{
		Use:   "migrate <source-data-dir>",
		Short: "Import data from another installation",
		Long: `Migrate validates the source data directory's schema against the
required-columns list, then copies the database (without its WAL/journal
sidecars), rewrites path prefixes in the tracking file, and copies
auxiliary state into this install's data root.

With --validate, migrate only reports on the source and changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcDir := args[0]
			name := dbName
			if name == "" {
				name = cfg.DBName
			}

			var report migrate.Report
			if validateOnly {
				report = migrate.Validate(srcDir, name)
			} else {
				report = migrate.Run(srcDir, cfg.DataRoot, name)
			}

			migrate.PrintReport(&report)
			if report.Failed() {
				return fmt.Errorf("migration failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&validateOnly, "validate", false, "Validate the source without copying anything")
	cmd.Flags().StringVar(&dbName, "db-name", "", "Source database file name without extension (default: configured db_name)")

	return cmd
}
