// Package server exposes schema models as HTTP resources.
//
// Every model declared in the schema is served under the configured base
// path (default "/api"):
//
//	GET    /api/{model}        list records matching the query string
//	POST   /api/{model}        create a record from a JSON object body
//	DELETE /api/{model}        delete every record matching the query string
//	GET    /api/{model}/{pk}   fetch one record among those matching
//	DELETE /api/{model}/{pk}   delete one record by primary key
//
// The query string is decoded with bracket notation and bound to a
// repository.Request using the configured parameter names:
//
//	GET /api/person?filters[first_name]=>k&filters[age]=>=18&include=articles.comments&sort[age]=desc
//
// The model is looked up in a schema.Holder on every request, so a schema
// reload takes effect without restarting the server.
//
// # Answers
//
// Lists are answered as {"data": [...], "count": n}, single records as
// {"data": {...}} and deletes as {"deleted": n}. Errors share one shape:
//
//	{"error": {"message": "...", "type": "invalid_request_error", "param": "filters[age]", "code": "invalid_filter"}}
//
// Filter syntax errors and operands of the wrong type answer 400. Unknown
// models, missing records and deletes that remove nothing answer 404.
//
// # Middleware
//
// Requests pass through request ID assignment (X-Request-ID, generated as a
// UUID when absent), structured logging with per-route metrics, and panic
// recovery, in that order.
//
// # Operational endpoints
//
// /health, /ready and /version come from the health package and the
// metrics path from the metrics collector, when those are configured.
package server
