package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/questexport/internal/config"
	"github.com/dbsmedya/questexport/internal/paths"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

var noColor bool

var showCmd = &cobra.Command{
	Use:   "show [snapshot-file]",
	Short: "Print a snapshot file as a table",
	Long: `Show reads a quest progress snapshot and prints it as a table. Without
an argument the configured snapshot path is used. When a quest catalog is
configured, each catalog group follows with its quests classified as not
started, in progress or completed, and a completion total.

Example:
  questexport show
  questexport show ./out/quest_progress.json --no-color
  questexport show --catalog ./quests`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	showCmd.Flags().StringVar(&catalogDir, "catalog", "", "Override the quest catalog directory")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := snapshotPathArg(cfg, args)
	if err != nil {
		return err
	}

	doc, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	snap, err := doc.Snapshot()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newTableStyle(!noColor)
	fmt.Fprintf(out, "Snapshot: %s\n", path)
	fmt.Fprintf(out, "Generated: %s UTC\n", doc.GeneratedAtUTC)
	fmt.Fprintf(out, "Quests: %d\n\n", snap.Len())
	renderSnapshot(out, snap, st)

	cat, overrides, err := questCatalog(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cat != nil {
		fmt.Fprintln(out)
		renderReport(out, cat.Evaluate(snap, overrides), st)
	}
	return nil
}

// snapshotPathArg returns args[0] or the configured snapshot path.
func snapshotPathArg(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return snapshotResolver(cfg).Path()
}

func snapshotResolver(cfg *config.Config) *paths.Resolver {
	return &paths.Resolver{
		Directory:  cfg.Export.Directory,
		SaveFolder: cfg.Export.SaveFolder,
		Filename:   cfg.Export.Filename,
	}
}
