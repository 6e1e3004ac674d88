package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/questexport/internal/plugin"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single export pass and exit",
	Long: `Once performs exactly one collect-and-write pass against the host
fixture and reports where the snapshot went. The runtime version check is
applied the same way as for run.

Example:
  questexport once --fixture save.yaml --output-dir ./out`,
	RunE: runOnce,
}

func init() {
	onceCmd.Flags().StringVarP(&fixtureFile, "fixture", "f", "",
		"Host fixture file (overrides host.fixture)")

	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	h, err := loadHost(cfg)
	if err != nil {
		return err
	}

	desc, err := plugin.NewDescriptor(cfg.Host)
	if err != nil {
		return err
	}
	if !desc.Compatible(h.RuntimeVersion()) {
		return fmt.Errorf("runtime %s is not supported (minimum %s, supported %s)",
			h.RuntimeVersion(), desc.MinimumRuntime, desc.SupportedRuntime)
	}

	c, err := plugin.Build(cfg, h, log)
	if err != nil {
		return err
	}

	res := c.Scheduler.RunPass(commandContext(cmd))
	if res.Err != nil {
		return res.Err
	}

	cmd.Printf("Pass: %s\n", res.ID)
	cmd.Printf("Quests: %d\n", res.Snapshot.Len())
	switch {
	case res.Written:
		cmd.Printf("Wrote: %s\n", res.Path)
	case res.Snapshot.Empty():
		cmd.Println("Nothing written, snapshot is empty")
	default:
		cmd.Printf("Nothing written to %s\n", res.Path)
	}
	return nil
}
