package devserver

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
	"git.home.luguber.info/inful/sitewright/internal/events"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// watcher monitors source directories and publishes a debounced
// SourceChanged event per burst of filesystem activity.
type watcher struct {
	fsw      *fsnotify.Watcher
	bus      *events.Bus
	debounce time.Duration
	log      *slog.Logger
}

func newWatcher(dirs []string, debounce time.Duration, bus *events.Bus, log *slog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityFatal, "failed to create file watcher")
	}

	w := &watcher{fsw: fsw, bus: bus, debounce: debounce, log: log}
	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addRecursive watches a directory tree. fsnotify is not recursive on its
// own, so every subdirectory is added; directories created later are picked
// up from their create events.
func (w *watcher) addRecursive(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityFatal, "failed to resolve watch path").
			WithContext("path", root)
	}
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityFatal, "failed to walk watch path").
				WithContext("path", path)
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != abs {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityFatal, "failed to watch directory").
				WithContext("path", path)
		}
		return nil
	})
}

// Start runs the watch loop until ctx is canceled.
func (w *watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *watcher) loop(ctx context.Context) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]struct{})
	)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories join the watch so nested changes keep firing.
			if event.Op&fsnotify.Create != 0 {
				if err := w.addRecursive(event.Name); err != nil {
					w.log.Debug("Failed to watch new path", logfields.Path(event.Name), logfields.Error(err))
				}
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = make(map[string]struct{})
			timer = nil
			timerC = nil

			w.log.Debug("Watch debounce elapsed", logfields.Count(len(paths)))
			if err := w.bus.Publish(ctx, events.SourceChanged{Paths: paths}); err != nil {
				w.log.Warn("Failed to publish source change", logfields.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *watcher) Close() {
	if err := w.fsw.Close(); err != nil {
		w.log.Debug("Failed to close file watcher", logfields.Error(err))
	}
}
