package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "foliotree",
	Short: "foliotree manages a multi-device, end-to-end-encrypted hierarchical file store",
}

func init() {
	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		createCommand,
		moveCommand,
		renameCommand,
		deleteCommand,
		shareCommand,
		rejectShareCommand,
		linkCommand,
		syncCommand,
		statusCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
