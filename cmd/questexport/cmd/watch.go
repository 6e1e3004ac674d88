package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/questexport/internal/catalog"
	"github.com/dbsmedya/questexport/internal/plugin"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

var watchPoll time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [snapshot-file]",
	Short: "Follow a snapshot file and print quest changes",
	Long: `Watch follows a quest progress snapshot and prints what changed each
time the exporter replaces it. The parent directory is watched so atomic
renames are seen; a periodic poll covers filesystems without notifications.
With a quest catalog configured, each refresh also prints the completion
total.

Example:
  questexport watch --poll 30s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	watchCmd.Flags().StringVar(&catalogDir, "catalog", "", "Override the quest catalog directory")
	watchCmd.Flags().DurationVar(&watchPoll, "poll", time.Minute, "Poll interval used alongside file notifications")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := snapshotPathArg(cfg, args)
	if err != nil {
		return err
	}
	cat, overrides, err := questCatalog(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := plugin.SetupSignalHandler(commandContext(cmd), nil)
	defer cancel()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	sw := &snapshotWatcher{
		path:      path,
		out:       cmd.OutOrStdout(),
		style:     newTableStyle(!noColor),
		catalog:   cat,
		overrides: overrides,
	}
	sw.refresh()

	return sw.loop(ctx, w.Events, w.Errors, watchPoll)
}

// snapshotWatcher prints the changes between successive versions of a file.
type snapshotWatcher struct {
	path  string
	out   io.Writer
	style tableStyle

	catalog   *catalog.Catalog // nil without a configured catalog
	overrides *catalog.Overrides

	last    snapshot.Snapshot
	modTime time.Time
	loaded  bool
}

func (sw *snapshotWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, poll time.Duration) error {
	if poll <= 0 {
		poll = time.Minute
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	target := filepath.Clean(sw.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				sw.refresh()
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			fmt.Fprintf(sw.out, "watch error: %v\n", err)
		case <-ticker.C:
			sw.refresh()
		}
	}
}

// refresh reloads the file if it changed and prints the differences. Half
// written or missing files are skipped until the next event.
func (sw *snapshotWatcher) refresh() {
	info, err := os.Stat(sw.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(sw.out, "stat %s: %v\n", sw.path, err)
		}
		return
	}
	if sw.loaded && info.ModTime().Equal(sw.modTime) {
		return
	}

	doc, err := snapshot.Load(sw.path)
	if err != nil {
		return
	}
	next, err := doc.Snapshot()
	if err != nil {
		return
	}
	sw.modTime = info.ModTime()

	if !sw.loaded {
		sw.loaded = true
		sw.last = next
		fmt.Fprintf(sw.out, "%s: %d quests (generated %s UTC)\n", sw.path, next.Len(), doc.GeneratedAtUTC)
		sw.printTotal(next)
		return
	}

	changes := snapshot.Diff(sw.last, next)
	sw.last = next
	fmt.Fprintf(sw.out, "\n%s UTC: %d changes\n", doc.GeneratedAtUTC, len(changes))
	if len(changes) > 0 {
		renderChanges(sw.out, changes, sw.style)
	}
	sw.printTotal(next)
}

func (sw *snapshotWatcher) printTotal(snap snapshot.Snapshot) {
	if sw.catalog == nil {
		return
	}
	rep := sw.catalog.Evaluate(snap, sw.overrides)
	fmt.Fprintf(sw.out, "Completed: %d / %d\n", rep.Completed, rep.Total)
}
