// Package health implements the liveness, readiness and version endpoints.
//
// The serve command registers a "storage" check that pings the backend and
// a "schema" check that fails while no models are loaded. /health never runs
// them; /ready runs them all and answers 503 if any fails.
package health
