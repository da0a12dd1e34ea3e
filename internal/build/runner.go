// Package build drives the plugin lifecycle: it loads configured plugins,
// runs the hook stages in contract order, renders the page set, and reports
// the outcome.
package build

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitewright/internal/action"
	"git.home.luguber.info/inful/sitewright/internal/buildcfg"
	"git.home.luguber.info/inful/sitewright/internal/config"
	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
	"git.home.luguber.info/inful/sitewright/internal/events"
	"git.home.luguber.info/inful/sitewright/internal/eventstore"
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
	"git.home.luguber.info/inful/sitewright/internal/metrics"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
	"git.home.luguber.info/inful/sitewright/internal/plugin"
	"git.home.luguber.info/inful/sitewright/internal/plugins"
	"git.home.luguber.info/inful/sitewright/internal/schema"
	"git.home.luguber.info/inful/sitewright/internal/workspace"
)

// Options configure a Runner beyond the site config.
type Options struct {
	// Catalog maps plugin names to factories. Nil means the builtin catalog.
	Catalog map[string]plugin.Factory

	// Journal receives lifecycle events. Nil disables journaling.
	Journal eventstore.Store

	// Recorder receives metrics. Nil disables them.
	Recorder metrics.Recorder

	// Bus receives a BuildFinished event per run. Nil disables publishing.
	Bus *events.Bus

	// WorkspaceDir is the scratch directory for source plugins (git clones).
	// Empty means a per-run temporary directory.
	WorkspaceDir string

	Log *slog.Logger
}

// Runner executes full lifecycle runs for one site config.
type Runner struct {
	cfg  *config.Config
	opts Options
	log  *slog.Logger
}

// Result is one completed (or aborted) lifecycle run.
type Result struct {
	Report *Report

	// State is the run's final state; the dev server keeps it for
	// onCreateDevServer dispatch and refresh scheduling.
	State *State
}

// NewRunner creates a build runner.
func NewRunner(cfg *config.Config, opts Options) *Runner {
	if opts.Catalog == nil {
		opts.Catalog = plugins.Catalog()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, opts: opts, log: log}
}

// Run executes one full lifecycle run. The returned Result always carries a
// report, also when the run failed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	buildID := uuid.NewString()
	log := r.log.With(logfields.BuildID(buildID))

	workspaceDir := r.opts.WorkspaceDir
	if workspaceDir == "" {
		ws := workspace.NewManager("")
		if err := ws.Create(); err != nil {
			return nil, swerrors.WorkspaceError("create build workspace", err)
		}
		workspaceDir = ws.GetPath()
		defer func() {
			if err := ws.Cleanup(); err != nil {
				log.Warn("Failed to clean build workspace", logfields.Error(err))
			}
		}()
	}

	registry := lifecycle.NewRegistry()
	st := &State{
		BuildID:      buildID,
		Config:       r.cfg,
		Registry:     registry,
		Dispatcher:   lifecycle.NewDispatcher(registry, r.opts.Recorder, r.opts.Journal, log, buildID),
		Catalog:      r.opts.Catalog,
		Nodes:        nodes.NewStore(),
		Pages:        pages.NewStore(),
		Schema:       schema.NewStore(),
		BuildCfg:     buildcfg.New(),
		SideEffects:  action.NewSideEffectLog(),
		Report:       newReport(buildID, r.cfg.Site.Title),
		Journal:      r.opts.Journal,
		Recorder:     r.opts.Recorder,
		Log:          log,
		WorkspaceDir: workspaceDir,
		OutputDir:    r.cfg.Output.Directory,
	}

	log.Info("Build started", logfields.Name(r.cfg.Site.Title))
	r.journalStart(ctx, st)

	stageErr := runStages(ctx, st, []namedStage{
		{StageLoadPlugins, stageLoadPlugins},
		{StagePreInit, stagePreInit},
		{StagePreBootstrap, stagePreBootstrap},
		{StageConfig, stageConfig},
		{StageSource, stageSource},
		{StageSchema, stageSchema},
		{StagePostBootstrap, stagePostBootstrap},
		{StagePreBuild, stagePreBuild},
		{StageExtractQueries, stageExtractQueries},
		{StageCreatePages, stageCreatePages},
		{StageSideEffects, stageSideEffects},
		{StageRender, stageRender},
		{StageVerify, stageVerify},
		{StagePostBuild, stagePostBuild},
	})

	st.Report.finish(stageErr)
	r.finish(ctx, st)

	if stageErr != nil {
		return &Result{Report: st.Report, State: st}, stageErr
	}
	return &Result{Report: st.Report, State: st}, nil
}

func (r *Runner) journalStart(ctx context.Context, st *State) {
	if st.Journal == nil {
		return
	}
	e, err := eventstore.NewBuildStarted(st.BuildID, r.cfg.Site.Title, StageLoadPlugins, len(r.cfg.Plugins))
	if err != nil {
		return
	}
	if err := eventstore.Record(ctx, st.Journal, e); err != nil {
		st.Log.Warn("Failed to journal build start", logfields.Error(err))
	}
}

// finish journals the final report, records build metrics, publishes the
// bus event, and logs the summary.
func (r *Runner) finish(ctx context.Context, st *State) {
	report := st.Report

	if st.Recorder != nil {
		st.Recorder.ObserveBuildDuration(report.Duration())
		st.Recorder.IncBuildOutcome(string(report.Outcome))
	}

	if st.Journal != nil {
		if e, err := eventstore.NewBuildFinished(st.BuildID, report.Data()); err == nil {
			if err := eventstore.Record(ctx, st.Journal, e); err != nil {
				st.Log.Warn("Failed to journal build finish", logfields.Error(err))
			}
		}
	}

	if r.opts.Bus != nil {
		evt := events.BuildFinished{
			BuildID:  st.BuildID,
			Outcome:  string(report.Outcome),
			Pages:    report.Pages,
			Duration: report.Duration(),
		}
		if err := r.opts.Bus.Publish(ctx, evt); err != nil {
			st.Log.Warn("Failed to publish build event", logfields.Error(err))
		}
	}

	switch report.Outcome {
	case OutcomeSuccess:
		st.Log.Info("Build finished", logfields.Name(report.Summary()))
	case OutcomeWarning:
		st.Log.Warn("Build finished with warnings", logfields.Name(report.Summary()))
	default:
		st.Log.Error("Build did not complete", logfields.Name(report.Summary()))
	}
}

// DispatchDevServer fires onCreateDevServer against the run's registry.
// Middleware registered through the action channel lands in sink; the mux
// is handed to implementations directly.
func (st *State) DispatchDevServer(ctx context.Context, mux *http.ServeMux, sink action.MiddlewareSink) error {
	return st.Dispatcher.Run(ctx, lifecycle.HookOnCreateDevServer, func(ctx context.Context, reg lifecycle.Registration) error {
		fn := reg.Impl.(lifecycle.DevServerFunc)
		set := st.actionSet(reg.Owner, lifecycle.HookOnCreateDevServer, setScope{middleware: sink})
		return fn(ctx, &lifecycle.DevServerArgs{Args: st.args(set), Mux: mux})
	})
}

// RefreshIntervals returns, per plugin, the periodic refresh interval a
// loaded plugin requests for its remote source. Zero intervals are omitted.
func (st *State) RefreshIntervals() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, l := range st.Plugins {
		if p, ok := l.Plugin.(interface{ RefreshInterval() time.Duration }); ok {
			if d := p.RefreshInterval(); d > 0 {
				out[l.Plugin.Metadata().Name] = d
			}
		}
	}
	return out
}
