package events

import "time"

// BuildFinished is published when a build run completes, whatever the outcome.
type BuildFinished struct {
	BuildID  string
	Outcome  string // success|warning|failed|canceled
	Pages    int
	Duration time.Duration
}

// SourceChanged is published by the file watcher when content or config files
// change on disk. Paths are deduplicated within one debounce window.
type SourceChanged struct {
	Paths []string
}

// PageChanged is published when a rebuild changed the page set, carrying the
// affected page paths for targeted livereload.
type PageChanged struct {
	Paths []string
}
