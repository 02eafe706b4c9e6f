// Package storage defines the Store interface used to execute query
// descriptions, along with helpers shared by the backends.
//
// # Backends
//
//   - sqlite: persistent storage on database/sql with either the cgo
//     mattn/go-sqlite3 driver or the pure-Go modernc.org/sqlite driver.
//   - memory: evaluates queries against in-process slices. Intended for
//     tests and the translate command.
//
// # Operands
//
// Filter operands arrive as raw strings. Coerce converts them to the
// field's declared type before comparison; a membership operand is split
// with query.SplitList first.
//
// # Prefetch
//
// Prefetch paths such as "articles__comments" are resolved by Prefetch,
// which walks the path one relation at a time and issues one fetch per
// level, attaching related rows to their parents.
package storage
