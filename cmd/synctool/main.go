package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:     "synctool",
		Short:   "Synchronize a directory tree to a destination",
		Version: version + " (" + commit + ")",
	}

	root.AddCommand(newSyncCmd())
	root.AddCommand(newPreviewCmd())

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
