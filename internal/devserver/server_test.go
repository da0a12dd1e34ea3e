package devserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/build"
	"git.home.luguber.info/inful/sitewright/internal/config"
	"git.home.luguber.info/inful/sitewright/internal/events"
	"git.home.luguber.info/inful/sitewright/internal/eventstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T, bus *events.Bus) *Server {
	t.Helper()
	outputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outputDir, "index.html"), []byte("<html>home</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	cfg := &config.Config{
		Site:   config.SiteConfig{Title: "Test"},
		Output: config.OutputConfig{Directory: outputDir},
		Dev:    config.DevConfig{Addr: ":0", DebounceMS: 20},
	}
	runner := build.NewRunner(cfg, build.Options{Log: discardLogger()})

	srv, err := New(cfg, Options{Runner: runner, Bus: bus, Log: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func TestNewRequiresRunnerAndBus(t *testing.T) {
	cfg := &config.Config{}

	if _, err := New(cfg, Options{Bus: events.NewBus()}); err == nil {
		t.Error("expected error without runner")
	}
	if _, err := New(cfg, Options{Runner: build.NewRunner(cfg, build.Options{})}); err == nil {
		t.Error("expected error without bus")
	}
}

func TestMuxEndpoints(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	srv := testServer(t, bus)
	mux := srv.buildMux(t.Context())

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/metrics", http.StatusNotFound, ""},
		{"/", http.StatusOK, "home"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("%s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
		}
		if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
			t.Errorf("%s body = %q", tt.path, rec.Body.String())
		}
	}
}

func TestSSEStreamsBuildEvents(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	handler := newSSEHandler(bus, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscription before publishing.
	deadline := time.Now().Add(time.Second)
	for events.SubscriberCount[events.BuildFinished](bus) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("SSE handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := bus.Publish(ctx, events.BuildFinished{BuildID: "b1", Outcome: "success"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline = time.Now().Add(time.Second)
	for !strings.Contains(rec.Body.String(), "event: build") {
		if time.Now().After(deadline) {
			t.Fatalf("no SSE event written, body: %q", rec.Body.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, `"build_id":"b1"`) && !strings.Contains(body, `"BuildID":"b1"`) {
		t.Errorf("event payload missing build id: %q", body)
	}
}

func TestWatcherDebouncesIntoOneEvent(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus()
	defer bus.Close()

	ch, unsubscribe := events.Subscribe[events.SourceChanged](bus, 4)
	defer unsubscribe()

	w, err := newWatcher([]string{dir}, 50*time.Millisecond, bus, discardLogger())
	if err != nil {
		t.Fatalf("newWatcher: %v", err)
	}
	defer w.Close()
	w.Start(t.Context())

	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, "file"+string(rune('a'+i))+".md")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	select {
	case evt := <-ch:
		if len(evt.Paths) == 0 {
			t.Error("event carried no paths")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no SourceChanged event published")
	}

	// The burst must have been coalesced.
	select {
	case <-ch:
		t.Error("second event published for one burst")
	case <-time.After(150 * time.Millisecond):
	}
}

type capturePublisher struct {
	mu      sync.Mutex
	reports []*build.Report
}

func (p *capturePublisher) PublishReport(_ context.Context, r *build.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reports)
}

func TestRebuildPublishesPageChangesAndRelaysReports(t *testing.T) {
	contentDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "public")

	page := "---\ntitle: Getting Started\n---\n\nFirst steps.\n"
	if err := os.WriteFile(filepath.Join(contentDir, "getting-started.md"), []byte(page), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := &config.Config{
		Site: config.SiteConfig{Title: "Test"},
		Plugins: []config.PluginSpec{
			{Name: "source-filesystem", Options: map[string]any{"path": contentDir}},
			{Name: "transformer-markdown"},
		},
		Output: config.OutputConfig{Directory: outputDir, Clean: true},
		Dev:    config.DevConfig{Addr: ":0", DebounceMS: 20},
	}

	bus := events.NewBus()
	defer bus.Close()
	pub := &capturePublisher{}
	runner := build.NewRunner(cfg, build.Options{Log: discardLogger()})
	srv, err := New(cfg, Options{Runner: runner, Bus: bus, Publisher: pub, Log: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ch, unsubscribe := events.Subscribe[events.PageChanged](bus, 4)
	defer unsubscribe()

	// The first build has no previous page set to diff against.
	if err := srv.rebuild(t.Context(), "test"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	select {
	case evt := <-ch:
		t.Fatalf("first build published page changes: %v", evt.Paths)
	case <-time.After(50 * time.Millisecond):
	}

	extra := "---\ntitle: Extra\n---\n\nMore.\n"
	if err := os.WriteFile(filepath.Join(contentDir, "extra.md"), []byte(extra), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := srv.rebuild(t.Context(), "test"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	select {
	case evt := <-ch:
		if len(evt.Paths) != 1 || !strings.Contains(evt.Paths[0], "extra") {
			t.Errorf("changed paths = %v", evt.Paths)
		}
	case <-time.After(time.Second):
		t.Fatal("no PageChanged event after a new page appeared")
	}

	if pub.count() != 2 {
		t.Errorf("published reports = %d, want 2", pub.count())
	}
}

func TestPageDiff(t *testing.T) {
	if got := pageDiff(nil, map[string]bool{"/a/": true}); got != nil {
		t.Errorf("first build diff = %v, want nil", got)
	}

	previous := map[string]bool{"/a/": true, "/b/": true}
	current := map[string]bool{"/a/": true, "/c/": true}
	got := pageDiff(previous, current)
	if len(got) != 2 {
		t.Fatalf("diff = %v, want removed /b/ and added /c/", got)
	}

	if got := pageDiff(previous, map[string]bool{"/a/": true, "/b/": true}); len(got) != 0 {
		t.Errorf("identical sets diff = %v", got)
	}
}

func TestStatusEndpoint(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	started, err := eventstore.NewBuildStarted("b1", "Test", "load_plugins", 1)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if err := eventstore.Record(ctx, store, started); err != nil {
		t.Fatalf("record: %v", err)
	}
	finished, err := eventstore.NewBuildFinished("b1", eventstore.BuildReportData{Outcome: "success", Pages: 2})
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if err := eventstore.Record(ctx, store, finished); err != nil {
		t.Fatalf("record: %v", err)
	}

	bus := events.NewBus()
	defer bus.Close()
	srv := testServer(t, bus)
	srv.journal = store

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"b1"`) || !strings.Contains(body, "finished") {
		t.Errorf("status body = %q", body)
	}

	// Without a journal the endpoint does not exist.
	srv.journal = nil
	rec = httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status without journal = %d, want 404", rec.Code)
	}
}
