package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/questexport/internal/database"
	"github.com/dbsmedya/questexport/internal/plugin"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and, when available, the host
fixture and history database.

Checks performed:
  - Configuration syntax and required fields
  - Snapshot path resolution
  - Runtime version compatibility of the host fixture
  - Record layout against the fixture's quests
  - History database connectivity (when enabled)

Example:
  questexport validate --config questexport.yaml`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&fixtureFile, "fixture", "f", "",
		"Host fixture file (overrides host.fixture)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())

	desc, err := plugin.NewDescriptor(cfg.Host)
	if err != nil {
		return err
	}
	cmd.Printf("Layout: %s\n", layoutContract(cfg))
	cmd.Printf("Runtime: %s - %s (strict: %v)\n", desc.MinimumRuntime, desc.SupportedRuntime, desc.Strict)

	path, err := snapshotResolver(cfg).Path()
	if err != nil {
		return fmt.Errorf("snapshot path: %w", err)
	}
	cmd.Printf("Snapshot path: %s\n", path)

	hasErrors := false

	if fixtureFile != "" || cfg.Host.Fixture != "" {
		cmd.Printf("\n--- Host fixture ---\n")
		h, err := loadHost(cfg)
		switch {
		case err != nil:
			cmd.Printf("❌ Fixture load failed: %v\n", err)
			hasErrors = true
		case !desc.Compatible(h.RuntimeVersion()):
			cmd.Printf("❌ Runtime %s is not supported\n", h.RuntimeVersion())
			hasErrors = true
		default:
			c, err := plugin.Build(cfg, h, log)
			if err != nil {
				cmd.Printf("❌ Exporter build failed: %v\n", err)
				hasErrors = true
				break
			}
			_, stats := c.Walker.CollectWithStats()
			cmd.Printf("Runtime: %s\n", h.RuntimeVersion())
			cmd.Printf("Records: %d resolved, %d matched\n", stats.Resolved, stats.Matched)
			if stats.ShortRecords > 0 {
				cmd.Printf("❌ %d records are shorter than the layout contract\n", stats.ShortRecords)
				hasErrors = true
			} else {
				cmd.Printf("✅ Fixture matches layout\n")
			}
		}
	}

	if cfg.History.Enabled {
		cmd.Printf("\n--- History database ---\n")
		dbManager := database.NewManager(&cfg.History.Database)
		ctx := commandContext(cmd)
		if err := dbManager.Connect(ctx); err != nil {
			cmd.Printf("❌ %v\n", err)
			hasErrors = true
		} else {
			if err := dbManager.Ping(ctx); err != nil {
				cmd.Printf("❌ %v\n", err)
				hasErrors = true
			} else {
				cmd.Printf("✅ Connected to %s\n", cfg.History.Database.Host)
			}
			_ = dbManager.Close()
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	cmd.Println("\n=== Validation Complete ===")
	cmd.Println("✅ Configuration is valid")
	return nil
}
