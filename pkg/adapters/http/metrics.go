package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics holds the server's Prometheus collectors on a private registry
// so two handlers in one process never collide.
type metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plait",
			Name:      "workflow_runs_total",
			Help:      "Workflow invocations by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plait",
			Name:      "workflow_run_duration_seconds",
			Help:      "Wall-clock duration of workflow invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}
	m.registry.MustRegister(m.runs, m.duration)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *metrics) observeRun(elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}
