// Package metrics defines the observability recorder for hook, stage, and
// build metrics, with a Prometheus implementation and a no-op default.
package metrics

import "time"

// Recorder defines observability hooks for build, stage, hook, and action
// metrics. Implementations may forward to Prometheus, OpenTelemetry, etc.
// All methods must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveHookDuration(hook, plugin string, d time.Duration)
	IncHookResult(hook, result string) // result: success|error
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	IncActionApplied(kind string)
	SetPluginCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHookDuration(string, string, time.Duration) {}
func (NoopRecorder) IncHookResult(string, string)                      {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)        {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                {}
func (NoopRecorder) IncBuildOutcome(string)                            {}
func (NoopRecorder) IncActionApplied(string)                           {}
func (NoopRecorder) SetPluginCount(int)                                {}
