package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivoronin/filesync/internal/engine"
	"github.com/ivoronin/filesync/internal/logging"
	"github.com/ivoronin/filesync/internal/model"
)

// newPreviewCmd creates the preview subcommand.
func newPreviewCmd() *cobra.Command {
	f := newSyncFlags()

	cmd := &cobra.Command{
		Use:   "preview <source> <destination>",
		Short: "Show the plan a sync would execute, without touching anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPreview(args[0], args[1], f)
		},
	}

	f.register(cmd)

	return cmd
}

func runPreview(source, destination string, f *syncFlags) error {
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

	plan, err := e.Preview(context.Background(), source, destination)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	for _, a := range plan.Actions {
		fmt.Println(describeAction(a))
	}
	fmt.Println(plan.String())
	return nil
}

func describeAction(a model.SyncAction) string {
	switch a.Kind {
	case model.ActionDelete:
		return fmt.Sprintf("%-8s %s", a.Kind, a.DstRelPath)
	case model.ActionCreateDirectory:
		return fmt.Sprintf("%-8s %s", a.Kind, a.RelPath())
	default:
		return fmt.Sprintf("%-8s %s", a.Kind, a.RelPath())
	}
}
