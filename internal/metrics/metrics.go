package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	WorkerErrors     *prometheus.CounterVec
	TickDuration     prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blbot_upstream_requests_total",
			Help: "Upstream API requests by outcome class.",
		}, []string{"outcome"}),
		WorkerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blbot_worker_errors_total",
			Help: "Errors logged per worker.",
		}, []string{"worker"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blbot_tick_duration_seconds",
			Help:    "Duration of one full refresh tick.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}

	registry.MustRegister(m.UpstreamRequests, m.WorkerErrors, m.TickDuration)

	return m
}

