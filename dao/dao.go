package dao

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/litesql"
	"github.com/syssam/litesql/dialect"
	"github.com/syssam/litesql/dialect/sql"
	"github.com/syssam/litesql/dialect/sql/sqlerr"
	"github.com/syssam/litesql/schema"
	"github.com/syssam/litesql/sqlgen"
)

// Option configures a DAO.
type Option func(*config)

type config struct {
	gen    []sqlgen.Option
	logger *slog.Logger
}

// WithGenerator passes options to the statement generator of the DAO.
func WithGenerator(opts ...sqlgen.Option) Option {
	return func(c *config) {
		c.gen = append(c.gen, opts...)
	}
}

// WithLogger sets the logger of the DAO and its generator.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// DAO runs the generated statements of entity type T against a driver.
// A DAO is safe for concurrent use; the DAO passed to a WithTx callback is
// bound to its transaction.
type DAO[T any] struct {
	drv    dialect.Driver
	conn   dialect.ExecQuerier
	gen    *sqlgen.Generator[T]
	logger *slog.Logger
	inTx   bool
}

// New returns the DAO of T over drv. Problems found by schema.Validate are
// logged, errors at warn level and warnings at debug level.
//
//	drv, err := sql.OpenEngine("file:app.db")
//	people, err := dao.New[Person](drv)
//	err = people.CreateTable(ctx)
func New[T any](drv dialect.Driver, opts ...Option) (*DAO[T], error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	gen, err := sqlgen.New[T](append([]sqlgen.Option{sqlgen.WithLogger(c.logger)}, c.gen...)...)
	if err != nil {
		return nil, err
	}
	r := schema.Validate(gen.Type())
	for _, e := range r.Errors {
		c.logger.Warn("litesql: invalid mapping", slog.String("table", e.Table), slog.String("column", e.Column), slog.String("problem", e.Message))
	}
	for _, w := range r.Warnings {
		c.logger.Debug("litesql: mapping warning", slog.String("table", w.Table), slog.String("column", w.Column), slog.String("problem", w.Message))
	}
	return &DAO[T]{drv: drv, conn: drv, gen: gen, logger: c.logger}, nil
}

// Generator returns the statement generator of the DAO.
func (d *DAO[T]) Generator() *sqlgen.Generator[T] { return d.gen }

// Type returns the mapping of T.
func (d *DAO[T]) Type() *schema.Type { return d.gen.Type() }

func (d *DAO[T]) table() string { return d.gen.Type().Table }

// CreateTable creates the table of T if it does not exist.
func (d *DAO[T]) CreateTable(ctx context.Context) error {
	if err := d.conn.Exec(ctx, d.gen.CreateTable(), []any{}, nil); err != nil {
		return d.mutationErr("create", err)
	}
	return nil
}

// Insert inserts e. When the identifier is autoincrement and e leaves it
// absent, it is set from the generated row id.
func (d *DAO[T]) Insert(ctx context.Context, e *T) error {
	stmt, err := d.gen.Insert(e)
	if err != nil {
		return d.mutationErr("insert", err)
	}
	var res sql.Result
	if err := d.conn.Exec(ctx, stmt.SQL, stmt.Args, &res); err != nil {
		return d.mutationErr("insert", err)
	}
	id := d.Type().ID
	if id == nil || !id.Autoincrement {
		return nil
	}
	_, present, err := id.Value(e)
	if err != nil {
		return d.mutationErr("insert", err)
	}
	if present {
		return nil
	}
	last, err := res.LastInsertId()
	if err != nil {
		return d.mutationErr("insert", fmt.Errorf("reading last insert id: %w", err))
	}
	if err := id.Set(e, last); err != nil {
		return d.mutationErr("insert", err)
	}
	return nil
}

// Update writes the present columns of e to the rows matched by its default
// predicate and returns the number of affected rows.
func (d *DAO[T]) Update(ctx context.Context, e *T) (int64, error) {
	stmt, err := d.gen.Update(e)
	if err != nil {
		return 0, d.mutationErr("update", err)
	}
	return d.exec(ctx, "update", stmt)
}

// Delete deletes the rows matched by the default predicate of e.
func (d *DAO[T]) Delete(ctx context.Context, e *T) (int64, error) {
	stmt, err := d.gen.Delete(e)
	if err != nil {
		return 0, d.mutationErr("delete", err)
	}
	return d.exec(ctx, "delete", stmt)
}

// DeleteByID deletes the row with the given identifier.
func (d *DAO[T]) DeleteByID(ctx context.Context, id any) (int64, error) {
	return d.exec(ctx, "delete", d.gen.DeleteByID(id))
}

// Select returns the rows matched by the default predicate of e.
// A zero e returns every row.
func (d *DAO[T]) Select(ctx context.Context, e *T) ([]*T, error) {
	stmt, err := d.gen.Select(e)
	if err != nil {
		return nil, litesql.NewQueryError(d.table(), "select", err)
	}
	return d.query(ctx, "select", stmt)
}

// Get returns the row with the given identifier. It returns a
// *litesql.NotFoundError when there is none.
func (d *DAO[T]) Get(ctx context.Context, id any) (*T, error) {
	rows, err := d.query(ctx, "get", d.gen.SelectByID(id))
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 1:
		return rows[0], nil
	case 0:
		return nil, litesql.NewNotFoundErrorWithID(d.table(), id)
	default:
		return nil, litesql.NewNotSingularErrorWithCount(d.table(), len(rows))
	}
}

// Count returns the number of rows matched by the default predicate of e.
func (d *DAO[T]) Count(ctx context.Context, e *T) (int64, error) {
	stmt, err := d.gen.Count(e)
	if err != nil {
		return 0, litesql.NewQueryError(d.table(), "count", err)
	}
	rows := &sql.Rows{}
	if err := d.conn.Query(ctx, stmt.SQL, stmt.Args, rows); err != nil {
		return 0, litesql.NewQueryError(d.table(), "count", err)
	}
	defer rows.Close()
	var n int64
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, litesql.NewQueryError(d.table(), "count", err)
		}
		return 0, litesql.NewQueryError(d.table(), "count", litesql.ErrNotFound)
	}
	if err := rows.Scan(&n); err != nil {
		return 0, litesql.NewQueryError(d.table(), "count", err)
	}
	if err := rows.Err(); err != nil {
		return 0, litesql.NewQueryError(d.table(), "count", err)
	}
	return n, nil
}

// Custom runs the custom query registered under key with its parameters read
// from e, and returns the resulting rows. An unknown key runs Select.
func (d *DAO[T]) Custom(ctx context.Context, key string, e *T) ([]*T, error) {
	stmt, err := d.gen.Custom(key, e)
	if err != nil {
		return nil, litesql.NewQueryError(d.table(), key, err)
	}
	return d.query(ctx, key, stmt)
}

// CustomQuery runs the custom query registered under key with the given
// arguments. An unknown key is logged and returns no rows.
func (d *DAO[T]) CustomQuery(ctx context.Context, key string, args ...any) ([]*T, error) {
	stmt, ok := d.gen.CustomArgs(key, args...)
	if !ok {
		return nil, nil
	}
	return d.query(ctx, key, stmt)
}

// CustomExec runs the custom statement registered under key with the given
// arguments and returns the number of affected rows. An unknown key is
// logged and runs nothing.
func (d *DAO[T]) CustomExec(ctx context.Context, key string, args ...any) (int64, error) {
	stmt, ok := d.gen.CustomArgs(key, args...)
	if !ok {
		return 0, nil
	}
	return d.exec(ctx, key, stmt)
}

// WithTx runs fn in a transaction with a DAO bound to it. The transaction is
// committed when fn returns nil and rolled back otherwise, or if fn panics.
//
//	err := people.WithTx(ctx, func(tx *dao.DAO[Person]) error {
//	    if err := tx.Insert(ctx, p); err != nil {
//	        return err
//	    }
//	    _, err := tx.Update(ctx, q)
//	    return err
//	})
func (d *DAO[T]) WithTx(ctx context.Context, fn func(tx *DAO[T]) error) error {
	if d.inTx {
		return litesql.ErrTxStarted
	}
	tx, err := d.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("litesql: starting a transaction: %w", err)
	}
	txd := &DAO[T]{drv: d.drv, conn: tx, gen: d.gen, logger: d.logger, inTx: true}
	defer func() {
		if v := recover(); v != nil {
			if err := tx.Rollback(); err != nil {
				d.logger.Error("litesql: rollback after panic", slog.Any("error", err))
			}
			panic(v)
		}
	}()
	if err := fn(txd); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: %w", err, &litesql.RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("litesql: committing transaction: %w", err)
	}
	return nil
}

func (d *DAO[T]) exec(ctx context.Context, op string, stmt sqlgen.Statement) (int64, error) {
	var res sql.Result
	if err := d.conn.Exec(ctx, stmt.SQL, stmt.Args, &res); err != nil {
		return 0, d.mutationErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, d.mutationErr(op, err)
	}
	return n, nil
}

func (d *DAO[T]) query(ctx context.Context, op string, stmt sqlgen.Statement) ([]*T, error) {
	rows := &sql.Rows{}
	if err := d.conn.Query(ctx, stmt.SQL, stmt.Args, rows); err != nil {
		return nil, litesql.NewQueryError(d.table(), op, err)
	}
	defer rows.Close()
	out, err := scanAll[T](rows, d.Type())
	if err != nil {
		return nil, litesql.NewQueryError(d.table(), op, err)
	}
	return out, nil
}

// mutationErr wraps a driver error, classifying constraint violations.
func (d *DAO[T]) mutationErr(op string, err error) error {
	if sqlerr.IsConstraintError(err) {
		err = litesql.NewConstraintError(err.Error(), err)
	}
	return litesql.NewMutationError(d.table(), op, err)
}
