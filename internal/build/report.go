package build

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/eventstore"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// IssueSeverity classifies a report issue.
type IssueSeverity string

const (
	SeverityWarning IssueSeverity = "warning"
	SeverityError   IssueSeverity = "error"
)

// Issue is one structured problem encountered during a build.
type Issue struct {
	Stage    string
	Severity IssueSeverity
	Message  string
}

// Report captures high-level metrics about one lifecycle run.
type Report struct {
	BuildID   string
	SiteTitle string
	Start     time.Time
	End       time.Time
	Outcome   Outcome

	Plugins       int
	Nodes         int
	Pages         int
	RenderedPages int

	StageDurations map[string]time.Duration
	Issues         []Issue
}

func newReport(buildID, siteTitle string) *Report {
	return &Report{
		BuildID:        buildID,
		SiteTitle:      siteTitle,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// AddIssue appends a structured issue.
func (r *Report) AddIssue(stage string, severity IssueSeverity, message string) {
	r.Issues = append(r.Issues, Issue{Stage: stage, Severity: severity, Message: message})
}

// Duration returns total wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Warnings returns the number of warning-severity issues.
func (r *Report) Warnings() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Errors returns the number of error-severity issues.
func (r *Report) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Summary returns a one-line human summary of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d plugins, %d nodes, %d pages (%d rendered), %d warnings, %d errors in %s",
		r.Outcome, r.Plugins, r.Nodes, r.Pages, r.RenderedPages, r.Warnings(), r.Errors(), r.Duration().Round(time.Millisecond))
}

// finish stamps the end time and derives the outcome from the stage error
// (if any) and the accumulated issues.
func (r *Report) finish(stageErr error) {
	r.End = time.Now()

	switch {
	case stageErr != nil && isCanceled(stageErr):
		r.Outcome = OutcomeCanceled
	case stageErr != nil:
		r.Outcome = OutcomeFailed
	case r.Warnings() > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Data converts the report for the build.finished journal record.
func (r *Report) Data() eventstore.BuildReportData {
	durations := make(map[string]int64, len(r.StageDurations))
	for stage, d := range r.StageDurations {
		durations[stage] = d.Milliseconds()
	}
	return eventstore.BuildReportData{
		Outcome:        string(r.Outcome),
		Summary:        r.Summary(),
		Pages:          r.Pages,
		Nodes:          r.Nodes,
		Plugins:        r.Plugins,
		StageDurations: durations,
		Errors:         r.Errors(),
		Warnings:       r.Warnings(),
	}
}
