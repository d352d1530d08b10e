package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beadscope/beadscope/internal/graph"
	"github.com/beadscope/beadscope/internal/model"
	"github.com/beadscope/beadscope/internal/tracker"
	"github.com/beadscope/beadscope/internal/ui"
)

var treeCmd = &cobra.Command{
	Use:   "tree <root-id>",
	Short: "Print the dependency tree for a root, one-shot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootID := args[0]
		bin, _ := cmd.Flags().GetString("bin")
		dir, _ := cmd.Flags().GetString("dir")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		client := tracker.NewClient(tracker.NewRunner(bin, dir))

		ctx := context.Background()
		records, err := client.TreeList(ctx, rootID)
		if err != nil {
			return err
		}
		snap, err := graph.BuildSnapshot(ctx, rootID, records, client)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		fmt.Println(nodeLabel(&snap.Tree.GraphNode))
		printNode(snap.Tree, "")
		fmt.Printf("\nprogress: %s\n", ui.RenderProgress(*snap.Progress))
		if len(snap.Blockers) > 0 {
			fmt.Printf("blocked by: %s\n", ui.RenderMuted(strings.Join(snap.Blockers, ", ")))
		}
		return nil
	},
}

func printNode(node *model.TreeNode, prefix string) {
	for i, child := range node.Children {
		isLast := i == len(node.Children)-1

		connector := "├── "
		childPrefix := prefix + "│   "
		if isLast {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		label := nodeLabel(&child.GraphNode)
		if child.Relation != "" && child.Relation != model.RelParentChild {
			label = ui.RenderMuted(string(child.Relation)+": ") + label
		}
		fmt.Printf("%s%s%s\n", prefix, connector, label)

		printNode(child, childPrefix)
	}
}

func nodeLabel(n *model.GraphNode) string {
	return fmt.Sprintf("%s [%s] %s", ui.RenderAccent(n.ID), ui.RenderStatus(n.Status), n.Title)
}

func init() {
	treeCmd.Flags().String("bin", envOrDefault("BEADSCOPE_TRACKER_BIN", "bd"), "tracker binary")
	treeCmd.Flags().String("dir", envOrDefault("BEADSCOPE_WORKDIR", "."), "tracker working directory")
	treeCmd.Flags().Bool("json", false, "output the full snapshot as JSON")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
