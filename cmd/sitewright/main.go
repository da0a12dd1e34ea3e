package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitewright/internal/build"
	"git.home.luguber.info/inful/sitewright/internal/config"
	"git.home.luguber.info/inful/sitewright/internal/devserver"
	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
	"git.home.luguber.info/inful/sitewright/internal/events"
	"git.home.luguber.info/inful/sitewright/internal/eventstore"
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/metrics"
	"git.home.luguber.info/inful/sitewright/internal/relay"
	"git.home.luguber.info/inful/sitewright/internal/version"
	"git.home.luguber.info/inful/sitewright/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitewright.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Run one full site build"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	Serve struct {
		Addr string `help:"Listen address (overrides config)"`
	} `cmd:"" help:"Start the dev server with watch mode and livereload"`

	Builds struct {
		Limit int `default:"10" help:"Number of builds to list"`
	} `cmd:"" help:"List recent builds from the event journal"`

	Report struct{} `cmd:"" help:"Show the latest build report relayed for this site"`

	Hooks struct {
		List struct{} `cmd:"" help:"List every hook in the contract table"`
		Docs struct{} `cmd:"" help:"Render the full hook reference as Markdown"`

		Describe struct {
			Name string `arg:"" help:"Hook name"`
		} `cmd:"" help:"Show one hook's documentation"`
	} `cmd:"" help:"Inspect the plugin hook contract"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	adapter := swerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(logger)
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "serve":
		err = runServe(logger)
	case "builds":
		err = runBuilds(logger)
	case "report":
		err = runReport(logger)
	case "hooks list":
		err = runHooksList()
	case "hooks docs":
		err = lifecycle.RenderReference(os.Stdout)
	case "hooks describe <name>":
		err = lifecycle.RenderDescriptor(os.Stdout, lifecycle.HookName(CLI.Hooks.Describe.Name))
	case "version":
		fmt.Printf("sitewright %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}

	adapter.HandleError(err)
}

func runBuild(logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Build.Output != "" {
		cfg.Output.Directory = CLI.Build.Output
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, rec := observability(cfg, logger)
	if journal != nil {
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Warn("Failed to close event store", "error", err)
			}
		}()
	}

	rel, err := relay.Connect(ctx, cfg, logger)
	if err != nil {
		// The relay is observability plumbing; a build never fails over it.
		logger.Warn("Build relay unavailable", "error", err)
	}
	defer rel.Close()

	runner := build.NewRunner(cfg, build.Options{
		Journal:  journal,
		Recorder: rec,
		Log:      logger,
	})
	res, runErr := runner.Run(ctx)
	if res != nil {
		rel.PublishReport(ctx, res.Report)
		fmt.Println(res.Report.Summary())
	}
	return runErr
}

func runServe(logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Serve.Addr != "" {
		cfg.Dev.Addr = CLI.Serve.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, rec := observability(cfg, logger)
	if journal != nil {
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Warn("Failed to close event store", "error", err)
			}
		}()
	}

	rel, err := relay.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Build relay unavailable", "error", err)
	}
	defer rel.Close()

	bus := events.NewBus()
	defer bus.Close()

	var metricsHandler http.Handler
	if prom, ok := rec.(*metrics.PrometheusRecorder); ok {
		metricsHandler = prom.HTTPHandler()
	}

	// Remote source clones persist across rebuilds for the whole session.
	ws := workspace.NewPersistentManager("", "sitewright-dev")
	if err := ws.Create(); err != nil {
		return err
	}

	runner := build.NewRunner(cfg, build.Options{
		Journal:      journal,
		Recorder:     rec,
		Bus:          bus,
		WorkspaceDir: ws.GetPath(),
		Log:          logger,
	})

	srv, err := devserver.New(cfg, devserver.Options{
		Runner:         runner,
		Bus:            bus,
		MetricsHandler: metricsHandler,
		Journal:        journal,
		Publisher:      rel,
		Log:            logger,
	})
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// runBuilds lists recent builds replayed from the event journal.
func runBuilds(logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if cfg.EventStore.Path == "" {
		return swerrors.ConfigRequired("eventStore.path")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := eventstore.NewSQLiteStore(cfg.EventStore.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close event store", "error", err)
		}
	}()

	ids, err := store.RecentBuildIDs(ctx, CLI.Builds.Limit)
	if err != nil {
		return err
	}

	projection := eventstore.NewBuildHistoryProjection(store, CLI.Builds.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}

	fmt.Printf("%-38s %-10s %-6s %-6s %s\n", "BUILD", "STATUS", "PAGES", "NODES", "STARTED")
	for _, id := range ids {
		s, ok := projection.GetBuild(id)
		if !ok {
			continue
		}
		fmt.Printf("%-38s %-10s %-6d %-6d %s\n",
			s.BuildID, s.Status, s.Pages, s.Nodes, s.StartedAt.Format(time.RFC3339))
	}
	return nil
}

// runReport fetches the latest relayed summary for this site from the relay's
// KV bucket.
func runReport(logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if !cfg.Relay.Enabled {
		return swerrors.ConfigRequired("relay.enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rel, err := relay.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rel.Close()

	summary, err := rel.LatestReport(ctx, cfg.Site.Title)
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Println("no build report relayed yet")
		return nil
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// observability opens the configured event journal and metrics recorder.
// Either may be absent; the build runs the same without them.
func observability(cfg *config.Config, logger *slog.Logger) (eventstore.Store, metrics.Recorder) {
	var journal eventstore.Store
	if cfg.EventStore.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.EventStore.Path)
		if err != nil {
			logger.Warn("Event store unavailable", "error", err)
		} else {
			journal = store
		}
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		rec = metrics.NewPrometheusRecorder()
	}
	return journal, rec
}

func runHooksList() error {
	fmt.Printf("%-28s %-14s %s\n", "HOOK", "PHASE", "CARDINALITY")
	for _, d := range lifecycle.Descriptors() {
		fmt.Printf("%-28s %-14s %s\n", d.Name, d.Phase, d.Cardinality)
	}
	return nil
}
