package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/questexport/internal/snapshot"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-snapshot> <new-snapshot>",
	Short: "Compare two snapshot files",
	Long: `Diff loads two quest progress snapshots and lists quests that were
added, advanced, regressed, renamed or removed between them.

Example:
  questexport diff before.json quest_progress.json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	prev, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	next, err := loadSnapshot(args[1])
	if err != nil {
		return err
	}

	changes := snapshot.Diff(prev, next)
	renderChanges(cmd.OutOrStdout(), changes, newTableStyle(!noColor))
	return nil
}

func loadSnapshot(path string) (snapshot.Snapshot, error) {
	doc, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	snap, err := doc.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
