package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivoronin/filesync/internal/engine"
	"github.com/ivoronin/filesync/internal/logging"
	"github.com/ivoronin/filesync/internal/progress"
)

// newSyncCmd creates the sync subcommand.
func newSyncCmd() *cobra.Command {
	f := newSyncFlags()

	cmd := &cobra.Command{
		Use:   "sync <source> <destination>",
		Short: "Synchronize destination to match source",
		Long: `Scans source and destination, builds a plan of copies, updates, deletes
and directory creations that brings destination in line with source, and
executes it.

Use --dry-run to see what would happen without touching the filesystem.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSync(args[0], args[1], f)
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "Preview changes without executing them")

	return cmd
}

func runSync(source, destination string, f *syncFlags) error {
	logging.Setup(logging.ResolveLevel(f.verbose, f.quiet), f.logFormat)

	opts, err := f.engineOptions()
	if err != nil {
		return err
	}

	e, err := engine.New(opts, logging.NewLogger("engine"))
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer func() { _ = e.Close() }()

	reporter, events := progress.NewReporter()
	display := progress.NewDisplay(!f.noProgress, f.verbose)

	done := make(chan struct{})
	go func() {
		defer close(done)
		display.Consume(events)
	}()

	m, err := e.SyncWithProgress(context.Background(), source, destination, reporter)
	reporter.Close()
	<-done

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println(m.Summary())
	if !m.IsSuccessful() {
		return fmt.Errorf("sync completed with errors")
	}
	return nil
}
