// Package sqlite implements storage.Store on SQLite.
//
// Query descriptions are rendered with squirrel. Lookups map onto SQL as
// follows:
//
//	exact       col = ?
//	in          col IN (?, ...)
//	lt gt ...   col < ?, col > ?, col <= ?, col >= ?
//	startswith  substr(col, 1, length(?)) = ?
//	endswith    substr(col, -length(?)) = ?
//	contains    instr(col, ?) > 0
//
// Text matching is case-sensitive. Excluded lookups are wrapped in
// NOT COALESCE((...), 0) so rows with NULL columns survive an exclusion.
//
// Either driver may be used: "sqlite3" (mattn/go-sqlite3, cgo) or "sqlite"
// (modernc.org/sqlite, pure Go). Migrate creates tables from a schema
// registry and Maintainer runs ANALYZE on a cron schedule.
package sqlite
