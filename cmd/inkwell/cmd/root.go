// Package cmd provides the CLI commands for inkwell.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-kb/inkwell/internal/capabilities"
	"github.com/inkwell-kb/inkwell/internal/config"
	"github.com/inkwell-kb/inkwell/internal/logging"
	"github.com/inkwell-kb/inkwell/pkg/version"
)

var (
	debugMode      bool
	dataRootFlag   string
	loggingCleanup func()

	// cfg is the effective configuration, loaded by the persistent pre-run.
	cfg *config.Config
)

// NewRootCmd creates the root command for the inkwell CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Privacy-first personal knowledge aggregation server",
		Long: `inkwell ingests your documents, transcripts, and exports into a local
hybrid search index (BM25 + vector embeddings) and answers recall queries
against it. Everything stays on this machine.

Run 'inkwell ingest <file>' to index something, then 'inkwell recall' to
search it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("inkwell version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.inkwell/logs/")
	cmd.PersistentFlags().StringVar(&dataRootFlag, "data-root", "", "Override the data directory")

	cmd.PersistentPreRunE = bootstrap
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newDistillCmd())
	cmd.AddCommand(newRecallCmd())
	cmd.AddCommand(newConsolidateCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// bootstrap loads config and sets up logging before any command runs.
func bootstrap(_ *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg, err = config.Load(cwd)
	if err != nil {
		return err
	}
	if dataRootFlag != "" {
		cfg.DataRoot = dataRootFlag
	}

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.File,
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	if logCfg.FilePath == "" {
		logCfg.FilePath = logging.DefaultLogPath()
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	return nil
}

// runtimeTier resolves the effective capability tier: the config override
// when set, otherwise the host probe.
func runtimeTier() capabilities.Tier {
	switch strings.ToLower(cfg.Tier) {
	case "base":
		return capabilities.Base
	case "enhanced":
		return capabilities.Enhanced
	case "advanced":
		return capabilities.Advanced
	case "full":
		return capabilities.Full
	default:
		return capabilities.Discover().Tier
	}
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
