package metrics

import "github.com/prometheus/client_golang/prometheus"

// SyncMetrics counts cart mirroring work performed by the sync dispatcher.
type SyncMetrics struct {
	dispatched *prometheus.CounterVec
	failed     *prometheus.CounterVec
	coalesced  prometheus.Counter
}

// NewSyncMetrics registers the cart sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_dispatched_total",
		Help: "Cart mutations mirrored to the back end.",
	}, []string{"op"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_failed_total",
		Help: "Cart mutations the back end did not accept.",
	}, []string{"op"})
	coalesced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_coalesced_total",
		Help: "Quantity updates replaced by a later update inside the debounce window.",
	})
	reg.MustRegister(dispatched, failed, coalesced)
	return &SyncMetrics{
		dispatched: dispatched,
		failed:     failed,
		coalesced:  coalesced,
	}
}

func (s *SyncMetrics) IncDispatched(op string) {
	if s == nil || s.dispatched == nil {
		return
	}
	s.dispatched.WithLabelValues(normalizeLabel(op)).Inc()
}

func (s *SyncMetrics) IncFailed(op string) {
	if s == nil || s.failed == nil {
		return
	}
	s.failed.WithLabelValues(normalizeLabel(op)).Inc()
}

func (s *SyncMetrics) IncCoalesced() {
	if s == nil || s.coalesced == nil {
		return
	}
	s.coalesced.Inc()
}
