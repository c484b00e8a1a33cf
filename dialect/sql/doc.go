// Package sql provides the database/sql backed implementation of
// dialect.Driver for SQLite.
//
// # Engines
//
// Two engines are supported, selected at build time:
//
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite, driver name "sqlite"
//   - -tags cgo_sqlite: mattn/go-sqlite3, driver name "sqlite3"
//
// Use OpenEngine (or Open with DriverName) so the compiled-in engine is used:
//
//	drv, err := sql.OpenEngine("file:app.db?_pragma=foreign_keys(1)")
//
// # Pragmas
//
// WithPragma attaches a PRAGMA to a context. Statements executed with that
// context run on a connection with the pragma applied; the previous value is
// restored before the connection returns to the pool:
//
//	ctx = sql.WithPragma(ctx, "foreign_keys", "on")
//	err := drv.Exec(ctx, "DELETE FROM person WHERE id=?", []any{7}, nil)
//
// # Wrappers
//
//   - StatsDriver: counts queries, execs, errors and slow statements
//   - DebugDriver: logs every statement through log/slog
package sql
