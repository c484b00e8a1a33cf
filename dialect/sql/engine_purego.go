//go:build !cgo_sqlite

package sql

import (
	_ "modernc.org/sqlite" // Pure Go SQLite engine.
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
