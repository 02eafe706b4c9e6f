package metrics

import "github.com/prometheus/client_golang/prometheus"

// QueryMetrics tracks query construction.
//
// Metrics:
//   - magicbox_queries_built_total{model,strategy}
//   - magicbox_query_errors_total{model,kind}
//   - magicbox_dropped_filter_fields_total{model}
type QueryMetrics struct {
	built         *prometheus.CounterVec
	errors        *prometheus.CounterVec
	droppedFields *prometheus.CounterVec
}

// NewQueryMetrics creates and registers query metrics.
func NewQueryMetrics(namespace string, registry prometheus.Registerer) *QueryMetrics {
	qm := &QueryMetrics{
		built: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_built_total",
				Help:      "Queries built from request parameters",
			},
			[]string{"model", "strategy"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_errors_total",
				Help:      "Requests rejected while building a query",
			},
			[]string{"model", "kind"},
		),
		droppedFields: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_filter_fields_total",
				Help:      "Filter keys ignored because the model does not declare them",
			},
			[]string{"model"},
		),
	}

	registry.MustRegister(qm.built, qm.errors, qm.droppedFields)
	return qm
}
