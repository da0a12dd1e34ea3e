package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/sitewright/internal/events"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// sseHandler streams build events to connected clients as Server-Sent
// Events. The livereload client reloads the page on every "build" event
// with a successful outcome.
type sseHandler struct {
	bus *events.Bus
	log *slog.Logger
}

func newSSEHandler(bus *events.Bus, log *slog.Logger) *sseHandler {
	return &sseHandler{bus: bus, log: log}
}

func (h *sseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	// Open the stream immediately so EventSource fires onopen.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	builds, unsubBuilds := events.Subscribe[events.BuildFinished](h.bus, 4)
	defer unsubBuilds()
	pages, unsubPages := events.Subscribe[events.PageChanged](h.bus, 4)
	defer unsubPages()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-builds:
			if !ok {
				return
			}
			err = writeSSE(w, "build", evt)
		case evt, ok := <-pages:
			if !ok {
				return
			}
			err = writeSSE(w, "page", evt)
		}
		if err != nil {
			h.log.Debug("SSE client write failed", logfields.Error(err))
			return
		}
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + event + "\n")); err != nil {
		return err
	}
	_, err = w.Write(append(append([]byte("data: "), data...), '\n', '\n'))
	return err
}
