package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/magicbox/pkg/config"
)

// OtherLabel replaces label values once the cardinality limit is reached.
const OtherLabel = "other"

// Collector owns every magicbox metric and the registry they live in.
// A disabled collector accepts all calls and records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	queryMetrics   *QueryMetrics
	storageMetrics *StorageMetrics
	httpMetrics    *HTTPMetrics

	// Model names come from a reloadable schema, so they are capped.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering into registry, or into a
// fresh registry when registry is nil.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		queryMetrics:       NewQueryMetrics(cfg.Namespace, registry),
		storageMetrics:     NewStorageMetrics(cfg.Namespace, registry),
		httpMetrics:        NewHTTPMetrics(cfg.Namespace, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

func (c *Collector) model(name string) string {
	if !c.cardinalityLimiter.Allow(name) {
		return OtherLabel
	}
	return name
}

// RecordQuery records a successfully built query and how many filter
// fields were dropped because the model does not declare them.
func (c *Collector) RecordQuery(model, strategy string, dropped int) {
	if !c.config.Enabled {
		return
	}
	model = c.model(model)
	c.queryMetrics.built.WithLabelValues(model, strategy).Inc()
	if dropped > 0 {
		c.queryMetrics.droppedFields.WithLabelValues(model).Add(float64(dropped))
	}
}

// RecordQueryError records a query that could not be built. kind is a short
// classification such as "syntax" or "coercion".
func (c *Collector) RecordQueryError(model, kind string) {
	if !c.config.Enabled {
		return
	}
	c.queryMetrics.errors.WithLabelValues(c.model(model), kind).Inc()
}

// RecordStorageOp records one storage round trip. It satisfies
// storage.Recorder.
func (c *Collector) RecordStorageOp(backend, operation string, seconds float64, err error) {
	if !c.config.Enabled {
		return
	}
	c.storageMetrics.duration.WithLabelValues(backend, operation).Observe(seconds)
	if err != nil {
		c.storageMetrics.errors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordHTTPRequest records a served request. route is the matched route
// pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.record(method, route, status, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values a label may take.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
