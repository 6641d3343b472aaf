// Package metrics wraps the Prometheus client for this service's
// observability surface, following the MetricsRegistry pattern in
// internal/interfaces/http/metrics.go of the teacher repository.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every Prometheus collector this service exposes.
type Registry struct {
	WSLatency      *prometheus.HistogramVec
	RefreshTotal   *prometheus.CounterVec
	RefreshFailed  *prometheus.CounterVec
	JobQueueDepth  prometheus.Gauge
}

// New constructs and registers the collectors against reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		WSLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orderbookd_ws_handler_latency_seconds",
				Help:    "Latency of streaming session handler calls, by endpoint.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"endpoint"},
		),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderbookd_refresh_total",
				Help: "Total successful order-book refreshes, by pair.",
			},
			[]string{"pair"},
		),
		RefreshFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderbookd_refresh_failed_total",
				Help: "Total aborted order-book refreshes, by pair.",
			},
			[]string{"pair"},
		),
		JobQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orderbookd_job_queue_depth",
				Help: "Approximate depth of the limit-order task queue.",
			},
		),
	}

	reg.MustRegister(m.WSLatency, m.RefreshTotal, m.RefreshFailed, m.JobQueueDepth)
	return m
}
