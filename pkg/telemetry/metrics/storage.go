package metrics

import "github.com/prometheus/client_golang/prometheus"

// StorageMetrics tracks storage backend round trips.
type StorageMetrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewStorageMetrics creates and registers storage metrics.
func NewStorageMetrics(namespace string, registry prometheus.Registerer) *StorageMetrics {
	sm := &StorageMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Duration of storage operations in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"backend", "operation"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "errors_total",
				Help:      "Failed storage operations",
			},
			[]string{"backend", "operation"},
		),
	}

	registry.MustRegister(sm.duration, sm.errors)
	return sm
}
