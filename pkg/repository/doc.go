// Package repository turns a resource request into a query and runs it.
//
// A Request is built once, usually by RequestFromParams from a decoded query
// string, and never mutated. BuildQuery is a pure function of the request,
// the model and Options; it applies, in order:
//
//  1. the filter restriction (flat or grouped, see package limiter)
//  2. the include set (see package include)
//  3. the aggregate annotation
//  4. the sort order
//
// Unknown fields, relations, aggregate operations and sort directions are
// dropped silently (logged at debug). Filter tokens with no recognized
// operator fail with a *limiter.SyntaxError.
//
// Repository binds a request to a storage.Store and exposes All, Find,
// Create and Delete. "Not found" is reported through a bool, never an error.
package repository
