package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/beadscope/beadscope/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "beadscope",
	Short: "Live dependency-graph viewer for bd-compatible issue trackers",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
