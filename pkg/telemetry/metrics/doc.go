// Package metrics exposes magicbox's Prometheus metrics.
//
// Metrics:
//
//   - queries_built_total, query_errors_total, dropped_filter_fields_total
//   - storage_operation_duration_seconds, storage_errors_total
//   - http_requests_total, http_request_duration_seconds
//
// All names carry the configured namespace (default "magicbox"). The
// collector is handed to the repository and storage layers as their
// recorder, and its Handler is mounted at telemetry.metrics.path.
package metrics
