package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/questexport/internal/config"
	"github.com/dbsmedya/questexport/internal/database"
	"github.com/dbsmedya/questexport/internal/history"
	"github.com/dbsmedya/questexport/internal/host"
	"github.com/dbsmedya/questexport/internal/layout"
	"github.com/dbsmedya/questexport/internal/lock"
	"github.com/dbsmedya/questexport/internal/logger"
	"github.com/dbsmedya/questexport/internal/metrics"
	"github.com/dbsmedya/questexport/internal/plugin"
)

var fixtureFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the exporter and write snapshots until interrupted",
	Long: `Run loads the exporter against a host and writes a quest progress
snapshot every interval until SIGINT or SIGTERM.

The standalone host is a YAML fixture describing the runtime version and the
records in its registry. When history is enabled every stage change is also
recorded in MySQL; when metrics.listen is set a Prometheus endpoint is served.

Example:
  questexport run --config questexport.yaml --fixture save.yaml`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&fixtureFile, "fixture", "f", "",
		"Host fixture file (overrides host.fixture)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	h, err := loadHost(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := plugin.SetupSignalHandler(commandContext(cmd), func(sig os.Signal) {
		log.Infow("Received signal, shutting down", "signal", sig.String())
	})
	defer cancel()

	p := plugin.New(cfg, log)

	g, gctx := errgroup.WithContext(ctx)

	rec := metrics.NewRecorder()
	p.OnPass(rec.Observe)
	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			log.Infow("Serving metrics", "listen", cfg.Metrics.Listen, "path", cfg.Metrics.Path)
			return rec.Serve(gctx, cfg.Metrics.Listen, cfg.Metrics.Path)
		})
	}

	if cfg.History.Enabled {
		closeHistory, err := attachHistory(gctx, cfg, p, log)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		defer closeHistory()
	}

	if !p.Load(gctx, h) {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("plugin refused to load against runtime %s", h.RuntimeVersion())
	}

	g.Go(func() error {
		<-gctx.Done()
		p.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadHost reads the fixture named by --fixture or host.fixture.
func loadHost(cfg *config.Config) (*host.StaticHost, error) {
	path := fixtureFile
	if path == "" {
		path = cfg.Host.Fixture
	}
	if path == "" {
		return nil, fmt.Errorf("no host fixture: set host.fixture or pass --fixture")
	}
	return host.LoadFixture(path, layoutContract(cfg))
}

func layoutContract(cfg *config.Config) layout.Contract {
	return layout.Contract{
		Version:     cfg.Layout.Version,
		StageOffset: cfg.Layout.StageOffset,
	}
}

// attachHistory connects to the history database, takes the table lock and
// registers the recorder on p. The returned func releases everything.
func attachHistory(ctx context.Context, cfg *config.Config, p *plugin.Plugin, log *logger.Logger) (func(), error) {
	dbManager := database.NewManager(&cfg.History.Database)
	if err := dbManager.Connect(ctx); err != nil {
		return nil, err
	}

	histLock := lock.NewHistoryLock(dbManager.DB, cfg.History.Table)
	if err := histLock.AcquireOrFail(ctx); err != nil {
		_ = dbManager.Close()
		return nil, fmt.Errorf("history table %s is in use: %w", cfg.History.Table, err)
	}

	rec, err := history.NewRecorder(dbManager.DB, cfg.History.Table, log)
	if err == nil {
		err = rec.EnsureSchema(ctx)
	}
	if err != nil {
		_, _ = histLock.ReleaseLock(context.Background())
		_ = dbManager.Close()
		return nil, err
	}

	p.OnPass(rec.Observe)
	log.Infow("Stage history enabled", "table", cfg.History.Table, "lock", histLock.LockName())

	return func() {
		if _, err := histLock.ReleaseLock(context.Background()); err != nil {
			log.Warnw("Failed to release history lock", "error", err)
		}
		if err := dbManager.Close(); err != nil {
			log.Warnw("Failed to close history database", "error", err)
		}
	}, nil
}
