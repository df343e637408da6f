package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the poller's Prometheus collectors.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
	Stored       prometheus.Gauge
	SinkFailures *prometheus.CounterVec
	BreakerState prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ambient",
			Name:      "vendor_requests_total",
			Help:      "Vendor API operations by operation and result.",
		}, []string{"operation", "result"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ambient",
			Name:      "vendor_request_duration_seconds",
			Help:      "Duration of vendor API operations, request delay included.",
			Buckets:   []float64{0.5, 1, 1.5, 2, 3, 5, 10, 30},
		}, []string{"operation"}),
		Stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ambient",
			Name:      "stored_observations",
			Help:      "Observations currently held in memory.",
		}),
		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ambient",
			Name:      "sink_failures_total",
			Help:      "Failed sink writes by sink.",
		}, []string{"sink"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ambient",
			Name:      "circuit_breaker_state",
			Help:      "Vendor circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
	}

	reg.MustRegister(m.Requests, m.Latency, m.Stored, m.SinkFailures, m.BreakerState)
	return m
}
