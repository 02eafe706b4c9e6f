// Package query defines the storage-neutral description of a query.
//
// A Query is produced by the repository layer from a decoded request and handed
// to a storage backend for execution. It never talks to a database itself:
//
//   - Filter and Exclude hold flat lookup conjunctions (the simple filter path)
//   - Where holds a composite boolean Predicate (the grouped filter path)
//   - Prefetch holds validated relationship paths joined with LookupSep
//   - Annotation holds at most one aggregate over a field or relation
//   - OrderBy holds validated sort keys
//
// # Lookups
//
// A Lookup pairs a field with an Operator and a raw, untyped operand string.
// Its Path follows the familiar "field__operator" form, with the exact
// operator rendered as the bare field name:
//
//	Lookup{Field: "name", Op: OpExact, Value: "kirill"}.Path()      // "name"
//	Lookup{Field: "age", Op: OpGreaterOrEqual, Value: "5"}.Path()   // "age__gte"
//
// Type coercion of operands is left to the storage backend.
//
// # Predicates
//
// Predicates form a small tree of Match, Not, And and Or nodes. Every node
// renders to a stable string, which makes two independently built queries
// easy to compare:
//
//	p := query.Combine(query.Match{{Field: "name", Op: query.OpExact, Value: "joe"}}, nil, query.AND)
//	fmt.Println(p) // (AND: name=joe)
package query
