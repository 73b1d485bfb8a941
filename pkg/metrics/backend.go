package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded for each upstream call.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
	OutcomeFailure   = "failure"
)

// BackendMetrics records latency and outcome of calls to the shop REST back end.
type BackendMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewBackendMetrics registers the back-end client metrics on the provided registerer.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of shop back-end requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Shop back-end requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &BackendMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// Observe records one finished call.
func (b *BackendMetrics) Observe(endpoint, outcome string, elapsed time.Duration) {
	if b == nil || b.duration == nil || b.outcomes == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	b.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	b.outcomes.WithLabelValues(endpoint, normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
