package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitewright"

// PrometheusRecorder implements Recorder backed by Prometheus metrics.
// A nil *PrometheusRecorder is valid and records nothing.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	hookDuration  *prometheus.HistogramVec
	hookResults   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	buildDuration prometheus.Histogram
	buildOutcomes *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	pluginCount   prometheus.Gauge
}

// NewPrometheusRecorder creates a recorder with all collectors registered
// on a fresh registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		registry: reg,
		hookDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hook_duration_seconds",
			Help:      "Duration of plugin hook invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"hook", "plugin"}),
		hookResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_results_total",
			Help:      "Hook invocation results by outcome.",
		}, []string{"hook", "result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of build stages.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		buildOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Completed builds by outcome.",
		}, []string{"outcome"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_applied_total",
			Help:      "Actions applied through hook channels, by kind.",
		}, []string{"kind"}),
		pluginCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plugins_loaded",
			Help:      "Number of plugins currently loaded.",
		}),
	}

	reg.MustRegister(
		r.hookDuration,
		r.hookResults,
		r.stageDuration,
		r.buildDuration,
		r.buildOutcomes,
		r.actionsTotal,
		r.pluginCount,
	)

	return r
}

// HTTPHandler returns the /metrics exposition handler.
func (r *PrometheusRecorder) HTTPHandler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) ObserveHookDuration(hook, plugin string, d time.Duration) {
	if r == nil {
		return
	}
	r.hookDuration.WithLabelValues(hook, plugin).Observe(d.Seconds())
}

func (r *PrometheusRecorder) IncHookResult(hook, result string) {
	if r == nil {
		return
	}
	r.hookResults.WithLabelValues(hook, result).Inc()
}

func (r *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.buildDuration.Observe(d.Seconds())
}

func (r *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if r == nil {
		return
	}
	r.buildOutcomes.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) IncActionApplied(kind string) {
	if r == nil {
		return
	}
	r.actionsTotal.WithLabelValues(kind).Inc()
}

func (r *PrometheusRecorder) SetPluginCount(n int) {
	if r == nil {
		return
	}
	r.pluginCount.Set(float64(n))
}
