// Package devserver serves the rendered site during development: static
// output with livereload, health and metrics endpoints, a source watcher
// that triggers rebuilds, and periodic refresh for remote sources.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/build"
	"git.home.luguber.info/inful/sitewright/internal/config"
	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
	"git.home.luguber.info/inful/sitewright/internal/events"
	"git.home.luguber.info/inful/sitewright/internal/eventstore"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

const shutdownTimeout = 5 * time.Second

// ReportPublisher relays finished build reports. The NATS relay satisfies it.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *build.Report)
}

// Server is the development server.
type Server struct {
	cfg    *config.Config
	runner *build.Runner
	bus    *events.Bus
	log    *slog.Logger

	// metricsHandler serves /metrics; nil responds 404.
	metricsHandler http.Handler

	// journal backs /status; nil responds 404.
	journal eventstore.Store

	// publisher relays each rebuild's report; nil disables relaying.
	publisher ReportPublisher

	mu        sync.Mutex
	lastState *build.State
	lastPages map[string]bool
	building  bool
}

// Options configure the dev server beyond the site config.
type Options struct {
	Runner         *build.Runner
	Bus            *events.Bus
	MetricsHandler http.Handler
	Journal        eventstore.Store
	Publisher      ReportPublisher
	Log            *slog.Logger
}

// New creates a dev server. The bus is required: it carries livereload and
// watch events.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, swerrors.New(swerrors.CategoryDevServer, swerrors.SeverityFatal, "dev server requires a build runner")
	}
	if opts.Bus == nil {
		return nil, swerrors.New(swerrors.CategoryDevServer, swerrors.SeverityFatal, "dev server requires an event bus")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:            cfg,
		runner:         opts.Runner,
		bus:            opts.Bus,
		metricsHandler: opts.MetricsHandler,
		journal:        opts.Journal,
		publisher:      opts.Publisher,
		log:            log,
	}, nil
}

// Serve runs an initial build, starts the watcher and refresh scheduler,
// and serves until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.rebuild(ctx, "startup"); err != nil {
		// A failed initial build still serves: the watcher lets the user
		// fix the source and converge.
		s.log.Error("Initial build failed", logfields.Error(err))
	}

	mux := s.buildMux(ctx)

	watcher, err := newWatcher(s.cfg.Dev.Watch, s.cfg.Dev.Debounce(), s.bus, s.log)
	if err != nil {
		return err
	}
	defer watcher.Close()
	watcher.Start(ctx)
	go s.rebuildLoop(ctx)

	scheduler, err := s.startScheduler(ctx)
	if err != nil {
		s.log.Warn("Refresh scheduler unavailable", logfields.Error(err))
	} else if scheduler != nil {
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				s.log.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:    s.cfg.Dev.Addr,
		Handler: mux,
		// SSE connections are long-lived; only bound the idle side.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Dev server listening", logfields.Addr(s.cfg.Dev.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityError, "dev server shutdown failed")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityFatal, "dev server failed").
			WithContext("addr", s.cfg.Dev.Addr)
	}
}

// buildMux assembles the handler set and gives plugins their turn through
// the dev-server hook.
func (s *Server) buildMux(ctx context.Context) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	} else {
		mux.Handle("/metrics", http.NotFoundHandler())
	}

	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/events", newSSEHandler(s.bus, s.log))
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Output.Directory)))

	s.mu.Lock()
	st := s.lastState
	s.mu.Unlock()
	if st != nil {
		if err := st.DispatchDevServer(ctx, mux, mux); err != nil {
			s.log.Error("Dev server hook failed", logfields.Error(err))
		}
	}
	return mux
}

// rebuildLoop rebuilds on every debounced SourceChanged event.
func (s *Server) rebuildLoop(ctx context.Context) {
	ch, unsubscribe := events.Subscribe[events.SourceChanged](s.bus, 4)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			s.log.Info("Source changed, rebuilding", logfields.Count(len(evt.Paths)))
			if err := s.rebuild(ctx, "watch"); err != nil {
				s.log.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// rebuild runs one full lifecycle run. Concurrent triggers collapse: a
// rebuild arriving while one is running is dropped, the watcher will fire
// again on the next change.
func (s *Server) rebuild(ctx context.Context, trigger string) error {
	s.mu.Lock()
	if s.building {
		s.mu.Unlock()
		s.log.Debug("Rebuild already in progress, skipping", logfields.Name(trigger))
		return nil
	}
	s.building = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.building = false
		s.mu.Unlock()
	}()

	res, err := s.runner.Run(ctx)
	if res != nil {
		pages := make(map[string]bool, res.State.Pages.Len())
		for _, p := range res.State.Pages.All() {
			pages[p.Path] = true
		}

		s.mu.Lock()
		s.lastState = res.State
		previous := s.lastPages
		s.lastPages = pages
		s.mu.Unlock()

		if changed := pageDiff(previous, pages); len(changed) > 0 {
			if err := s.bus.Publish(ctx, events.PageChanged{Paths: changed}); err != nil {
				s.log.Debug("Page change not delivered", logfields.Error(err))
			}
		}
		if s.publisher != nil {
			s.publisher.PublishReport(ctx, res.Report)
		}
	}
	return err
}

// pageDiff returns the paths added or removed between two rebuilds. The
// first build has no previous set and reports nothing.
func pageDiff(previous, current map[string]bool) []string {
	if previous == nil {
		return nil
	}
	var changed []string
	for path := range current {
		if !previous[path] {
			changed = append(changed, path)
		}
	}
	for path := range previous {
		if !current[path] {
			changed = append(changed, path)
		}
	}
	return changed
}

// handleStatus reports the active build and recent history, replayed from
// the event journal per request. Without a journal the endpoint is absent.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.NotFound(w, r)
		return
	}

	projection := eventstore.NewBuildHistoryProjection(s.journal, 20)
	if err := projection.Rebuild(r.Context()); err != nil {
		s.log.Error("Status projection failed", logfields.Error(err))
		http.Error(w, "event journal unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"active":  projection.GetActiveBuild(),
		"history": projection.GetHistory(),
	})
	if err != nil {
		s.log.Debug("Status write failed", logfields.Error(err))
	}
}
