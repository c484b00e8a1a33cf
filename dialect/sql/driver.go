package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/syssam/litesql/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// IsValidIdentifier checks if the string is a valid SQL identifier.
func IsValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// escapeStringValue escapes a string value for safe use in a SQL string literal.
func escapeStringValue(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	return strings.ReplaceAll(s, "'", "''")
}

// Driver is a dialect.Driver implementation for SQLite databases.
type Driver struct {
	Conn
	name string
}

// NewDriver creates a new Driver with the given Conn and database/sql driver name.
func NewDriver(name string, c Conn) *Driver {
	return &Driver{name: name, Conn: c}
}

// Open wraps the database/sql.Open method and returns a dialect.Driver.
// The name is the registered database/sql driver, usually DriverName().
func Open(name, source string) (*Driver, error) {
	db, err := sql.Open(name, source)
	if err != nil {
		return nil, err
	}
	return NewDriver(name, Conn{db}), nil
}

// OpenDB wraps the given database/sql.DB method with a Driver.
func OpenDB(name string, db *sql.DB) *Driver {
	return NewDriver(name, Conn{db})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Name returns the database/sql driver name the Driver was opened with.
func (d Driver) Name() string { return d.name }

// Dialect implements the dialect.Dialect method. Both the pure Go ("sqlite")
// and the CGO ("sqlite3") engines report dialect.SQLite.
func (d Driver) Dialect() string {
	return dialect.SQLite
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{tx},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// ctxPragmasKey is the key used for attaching and reading the context pragmas.
type ctxPragmasKey struct{}

// sessionPragmas holds pragmas to set on the connection before every statement.
type sessionPragmas struct {
	pragmas []struct{ k, v string }
}

// WithPragma returns a new context that holds a PRAGMA to be applied to the
// connection before the statement runs. Outside a transaction the statement
// gets a dedicated connection and the previous pragma value is restored
// before the connection returns to the pool.
func WithPragma(ctx context.Context, name, value string) context.Context {
	sp, _ := ctx.Value(ctxPragmasKey{}).(sessionPragmas)
	sp.pragmas = append(sp.pragmas, struct {
		k, v string
	}{
		k: name,
		v: value,
	})
	return context.WithValue(ctx, ctxPragmasKey{}, sp)
}

// PragmaFromContext returns the last pragma value set on the context.
func PragmaFromContext(ctx context.Context, name string) (string, bool) {
	sp, _ := ctx.Value(ctxPragmasKey{}).(sessionPragmas)
	for i := len(sp.pragmas) - 1; i >= 0; i-- {
		if sp.pragmas[i].k == name {
			return sp.pragmas[i].v, true
		}
	}
	return "", false
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.maySetPragmas(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: set pragmas: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	switch v := v.(type) {
	case nil:
		if _, err := ex.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := ex.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.maySetPragmas(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: set pragmas: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	if cf != nil {
		vr.ColumnScanner = rowsWithCloser{rows, cf}
	}
	return nil
}

// maySetPragmas applies the context pragmas before executing a statement.
func (c Conn) maySetPragmas(ctx context.Context) (ExecQuerier, func() error, error) {
	sp, _ := ctx.Value(ctxPragmasKey{}).(sessionPragmas)
	if len(sp.pragmas) == 0 {
		return c, nil, nil
	}
	var (
		ex    ExecQuerier  // Underlying ExecQuerier.
		cf    func() error // Close function.
		reset []string     // Restore statements.
		seen  = make(map[string]struct{}, len(sp.pragmas))
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	fail := func(err error) (ExecQuerier, func() error, error) {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return nil, nil, err
	}
	for _, p := range sp.pragmas {
		if !IsValidIdentifier(p.k) {
			return fail(fmt.Errorf("invalid pragma name: %q", p.k))
		}
		// Only pooled connections are restored; a transaction owns its connection.
		if _, ok := seen[p.k]; !ok && cf != nil {
			prev, ok, err := currentPragma(ctx, ex, p.k)
			if err != nil {
				return fail(err)
			}
			if ok {
				reset = append(reset, fmt.Sprintf("PRAGMA %s = '%s'", p.k, escapeStringValue(prev)))
			}
		}
		seen[p.k] = struct{}{}
		if _, err := ex.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = '%s'", p.k, escapeStringValue(p.v))); err != nil {
			return fail(err)
		}
	}
	// Restore the previous values before the connection goes back to the pool.
	// A background context with timeout is used so the cleanup completes even
	// if the original context was canceled.
	if cls := cf; cf != nil && len(reset) > 0 {
		cf = func() error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(cleanupCtx, q); err != nil {
					return errors.Join(err, cls())
				}
			}
			return cls()
		}
	}
	return ex, cf, nil
}

// currentPragma reads the current value of a pragma. Pragmas that report no
// value (write-only pragmas) return ok=false.
func currentPragma(ctx context.Context, ex ExecQuerier, name string) (string, bool, error) {
	rows, err := ex.QueryContext(ctx, "PRAGMA "+name)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return "", false, rows.Err()
	}
	var v sql.NullString
	if err := rows.Scan(&v); err != nil {
		return "", false, err
	}
	return v.String, v.Valid, rows.Err()
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// rowsWithCloser wraps the ColumnScanner interface with a custom Close hook.
type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

// Close closes the underlying ColumnScanner and calls the custom closer.
func (r rowsWithCloser) Close() error {
	err := r.ColumnScanner.Close()
	return errors.Join(err, r.closer())
}
