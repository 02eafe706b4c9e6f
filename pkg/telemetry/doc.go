// Package telemetry groups magicbox's observability packages:
//
//   - logging: slog setup with request fields taken from the context
//   - metrics: Prometheus collectors for queries, storage and HTTP
//   - health: liveness and readiness endpoints
package telemetry
