//go:build cgo_sqlite

// CGO SQLite engine using mattn/go-sqlite3.
//
// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package sql

import (
	_ "github.com/mattn/go-sqlite3" // CGO SQLite engine.
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)
