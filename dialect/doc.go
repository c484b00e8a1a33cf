// Package dialect defines the driver abstraction the data-access layer
// executes generated statements through.
//
// Statements produced by package sqlgen target a single embedded engine:
//
//	dialect.SQLite = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Usage
//
//	import (
//	    "github.com/syssam/litesql/dialect"
//	    "github.com/syssam/litesql/dialect/sql"
//	)
//
//	drv, err := sql.Open(sql.DriverName(), "file:app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	people, err := dao.New[Person](drv)
//
// # Sub-packages
//
//   - dialect/sql: database/sql backed driver, stats and debug wrappers
//   - dialect/sql/sqlerr: SQLite constraint error classification
package dialect
