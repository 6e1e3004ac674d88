package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/dbsmedya/questexport/internal/catalog"
	"github.com/dbsmedya/questexport/internal/config"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

// catalogDir overrides catalog.directory for show, watch and override.
var catalogDir string

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Mark quests completed by hand",
	Long: `Override manages manual completions. An overridden quest counts as
completed in show and watch whatever stage the snapshot reports. Quests are
named by their catalog key: the quest id, or its name when it has no id.

Example:
  questexport override set Deliverance
  questexport override list
  questexport override clear Deliverance`,
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List manual completions",
	Args:  cobra.NoArgs,
	RunE:  runOverrideList,
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <quest-key>",
	Short: "Mark a quest completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverrideChange(cmd, args[0], true)
	},
}

var overrideClearCmd = &cobra.Command{
	Use:   "clear <quest-key>",
	Short: "Remove a manual completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverrideChange(cmd, args[0], false)
	},
}

func init() {
	overrideCmd.PersistentFlags().StringVar(&catalogDir, "catalog", "", "Override the quest catalog directory")

	overrideCmd.AddCommand(overrideListCmd, overrideSetCmd, overrideClearCmd)
	rootCmd.AddCommand(overrideCmd)
}

func runOverrideList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, overrides, err := catalogAndOverrides(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if overrides.Len() == 0 {
		fmt.Fprintln(out, "No manual overrides")
		return nil
	}

	keys := overrides.Keys()
	kw := nameColumnWidth(keys)
	st := newTableStyle(!noColor)
	fmt.Fprintf(out, "%s  %s  %s\n", st.header(cell("KEY", kw)), st.header(cell("UPDATED", 20)), st.header("QUEST"))
	fmt.Fprintf(out, "%s\n", strings.Repeat("-", kw+2+20+2+5))
	for _, key := range keys {
		ov, _ := overrides.Get(key)
		title := "-"
		if cat != nil {
			if q, ok := cat.Find(key); ok {
				title = q.Title()
			} else {
				title = "(not in catalog)"
			}
		}
		fmt.Fprintf(out, "%s  %s  %s\n", cell(key, kw), cell(snapshot.FormatTimestamp(ov.UpdatedAt), 20), title)
	}
	return nil
}

func runOverrideChange(cmd *cobra.Command, key string, completed bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, overrides, err := catalogAndOverrides(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !completed {
		if _, ok := overrides.Get(key); !ok {
			fmt.Fprintf(out, "No override for %s\n", key)
			return nil
		}
	} else if cat != nil {
		if _, ok := cat.Find(key); !ok {
			return fmt.Errorf("quest %q is not in the catalog", key)
		}
	}

	overrides.Set(key, completed, time.Now())
	if err := overrides.Save(); err != nil {
		return err
	}

	if completed {
		fmt.Fprintf(out, "Marked %s completed\n", key)
	} else {
		fmt.Fprintf(out, "Cleared override for %s\n", key)
	}
	return nil
}

// questCatalog loads the configured catalog and the overrides file. Both
// are nil when no catalog directory is configured. Group files that fail to
// load are reported to warn and left out.
func questCatalog(cfg *config.Config, warn io.Writer) (*catalog.Catalog, *catalog.Overrides, error) {
	if catalogDir != "" {
		cfg.Catalog.Directory = catalogDir
	}
	if cfg.Catalog.Directory == "" {
		return nil, nil, nil
	}

	cat, err := catalog.LoadDir(cfg.Catalog.Directory)
	if cat == nil {
		return nil, nil, err
	}
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(warn, "catalog: %v\n", e)
	}

	overrides, err := loadOverrides(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cat, overrides, nil
}

// catalogAndOverrides is questCatalog for the override commands, which
// need the overrides file even without a catalog.
func catalogAndOverrides(cfg *config.Config, warn io.Writer) (*catalog.Catalog, *catalog.Overrides, error) {
	cat, overrides, err := questCatalog(cfg, warn)
	if err != nil || overrides != nil {
		return cat, overrides, err
	}
	overrides, err = loadOverrides(cfg)
	return nil, overrides, err
}

func loadOverrides(cfg *config.Config) (*catalog.Overrides, error) {
	path, err := overridesPath(cfg)
	if err != nil {
		return nil, err
	}
	return catalog.LoadOverrides(path)
}

// overridesPath returns catalog.overrides_file, or quest_overrides.yaml in
// the snapshot directory.
func overridesPath(cfg *config.Config) (string, error) {
	if cfg.Catalog.OverridesFile != "" {
		return cfg.Catalog.OverridesFile, nil
	}
	dir, err := snapshotResolver(cfg).Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, catalog.DefaultOverridesFile), nil
}
