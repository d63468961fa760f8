package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	ierrors "github.com/inkwell-kb/inkwell/internal/errors"
	"github.com/inkwell-kb/inkwell/internal/watcher"
)

// newIngestCmd creates the ingest command: index files or directories, or
// watch the imports spool for new arrivals.
func newIngestCmd() *cobra.Command {
	var watch bool
	var force bool

	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Index files into the knowledge store",
		Long: `Ingest reads each path (recursing into directories), extracts text,
chunks it, and indexes it for hybrid search. Unchanged files recorded in
the tracking file are skipped; duplicates (same content hash) are reported
as skipped, not failed.

With --watch and no paths, ingest watches the data root's imports/
directory and indexes files as they land. Stop with ctrl-c.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if watch {
				if len(args) > 0 {
					return fmt.Errorf("--watch takes no path arguments; it watches %s", filepath.Join(cfg.DataRoot, "imports"))
				}
				return runWatch(ctx, cmd, a)
			}
			if len(args) == 0 {
				return fmt.Errorf("nothing to ingest: pass at least one path or use --watch")
			}

			indexed, skipped, failed := 0, 0, 0
			for _, arg := range args {
				err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
					if err != nil {
						return err
					}
					if d.IsDir() || !d.Type().IsRegular() {
						return nil
					}
					switch ingestOne(ctx, cmd, a, path, force) {
					case outcomeIndexed:
						indexed++
					case outcomeSkipped:
						skipped++
					case outcomeFailed:
						failed++
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			cmd.Printf("Ingest complete: %d indexed, %d skipped, %d failed\n", indexed, skipped, failed)
			if failed > 0 {
				return fmt.Errorf("%d files failed to ingest", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Watch the imports directory and ingest new files")
	cmd.Flags().BoolVar(&force, "force", false, "Re-ingest files even if the tracking file says they're unchanged")

	return cmd
}

type ingestOutcome int

const (
	outcomeIndexed ingestOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func ingestOne(ctx context.Context, cmd *cobra.Command, a *app, path string, force bool) ingestOutcome {
	if !force && a.tracker.IsIndexed(path) {
		cmd.Printf("  unchanged  %s\n", path)
		return outcomeSkipped
	}

	docID, err := a.orch.IngestFile(ctx, path)
	if err != nil {
		var ie *ierrors.InkwellError
		if errors.As(err, &ie) && ie.Kind == ierrors.KindDuplicateContent {
			cmd.Printf("  duplicate  %s\n", path)
			return outcomeSkipped
		}
		cmd.PrintErrf("  failed     %s: %v\n", path, err)
		return outcomeFailed
	}
	if docID == nil {
		cmd.Printf("  no text    %s\n", path)
		return outcomeSkipped
	}

	if err := a.tracker.Mark(path, docID); err != nil {
		cmd.PrintErrf("  warning: could not update tracking file for %s: %v\n", path, err)
	}
	cmd.Printf("  indexed    %s (document %d)\n", path, *docID)
	return outcomeIndexed
}

// runWatch ingests files as they appear in imports/ until interrupted.
func runWatch(ctx context.Context, cmd *cobra.Command, a *app) error {
	importsDir := filepath.Join(cfg.DataRoot, "imports")
	if err := os.MkdirAll(importsDir, 0o755); err != nil {
		return err
	}

	w, err := watcher.NewFSWatcher(watcher.DefaultOptions())
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	if err := w.Start(ctx, importsDir); err != nil {
		return err
	}
	cmd.Printf("Watching %s (ctrl-c to stop)\n", importsDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			cmd.PrintErrf("  watch error: %v\n", err)
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			if event.IsDir || (event.Operation != watcher.OpCreate && event.Operation != watcher.OpModify) {
				continue
			}
			ingestOne(ctx, cmd, a, event.Path, false)
		}
	}
}
