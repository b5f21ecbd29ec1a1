// Package metrics exposes Prometheus metrics for market data fetches,
// optimizer runs and scheduled jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockdash/stockdash/internal/modules/marketdata"
	"github.com/stockdash/stockdash/internal/modules/optimization"
)

const namespace = "stockdash"

// Registry holds all service metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	SeriesServed    *prometheus.CounterVec
	UpstreamErrors  prometheus.Counter
	OptimizerRuns   *prometheus.CounterVec
	OptimizerTime   *prometheus.HistogramVec
	JobRuns         *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	CachedSeries    prometheus.GaugeFunc
	BreakerOpen     prometheus.GaugeFunc
	cacheSize       func() int
	breakerOpenFunc func() bool
}

// New creates the registry. cacheSize and breakerOpen feed gauges and may be nil.
func New(cacheSize func() int, breakerOpen func() bool) *Registry {
	r := &Registry{
		registry:        prometheus.NewRegistry(),
		cacheSize:       cacheSize,
		breakerOpenFunc: breakerOpen,

		SeriesServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "series_served_total",
				Help:      "Price series served by source and cache status",
			},
			[]string{"source", "cached"},
		),

		UpstreamErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Failed upstream price history requests",
			},
		),

		OptimizerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimizer_runs_total",
				Help:      "Optimizer runs by objective and outcome",
			},
			[]string{"objective", "outcome"},
		),

		OptimizerTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "optimizer_run_duration_seconds",
				Help:      "Duration of optimizer runs including data fetch",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"objective"},
		),

		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs by job and status",
			},
			[]string{"job", "status"},
		),

		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Duration of scheduled job runs",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"job"},
		),
	}

	r.CachedSeries = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_series",
			Help:      "Price series held in the in-memory cache",
		},
		func() float64 {
			if r.cacheSize == nil {
				return 0
			}
			return float64(r.cacheSize())
		},
	)

	r.BreakerOpen = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_breaker_open",
			Help:      "1 when the upstream circuit breaker is open",
		},
		func() float64 {
			if r.breakerOpenFunc != nil && r.breakerOpenFunc() {
				return 1
			}
			return 0
		},
	)

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SeriesServed,
		r.UpstreamErrors,
		r.OptimizerRuns,
		r.OptimizerTime,
		r.JobRuns,
		r.JobDuration,
		r.CachedSeries,
		r.BreakerOpen,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveSeries implements marketdata.FetchObserver.
func (r *Registry) ObserveSeries(source marketdata.Source, cached bool) {
	c := "false"
	if cached {
		c = "true"
	}
	r.SeriesServed.WithLabelValues(string(source), c).Inc()
}

// ObserveUpstreamError implements marketdata.FetchObserver.
func (r *Registry) ObserveUpstreamError() {
	r.UpstreamErrors.Inc()
}

// ObserveRun implements optimization.RunObserver.
func (r *Registry) ObserveRun(objective optimization.Objective, elapsed time.Duration, fallbackReason string, err error) {
	outcome := "ok"
	switch {
	case err != nil && optimization.IsRequestError(err):
		outcome = "invalid"
	case err != nil:
		outcome = "error"
	case fallbackReason != "":
		outcome = "fallback"
	}
	r.OptimizerRuns.WithLabelValues(string(objective), outcome).Inc()
	r.OptimizerTime.WithLabelValues(string(objective)).Observe(elapsed.Seconds())
}

// ObserveJob implements scheduler.JobObserver.
func (r *Registry) ObserveJob(name string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	r.JobRuns.WithLabelValues(name, status).Inc()
	r.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
