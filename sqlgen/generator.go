package sqlgen

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/syssam/litesql/schema"
)

// ErrNilEntity is returned when a statement is generated from a nil entity.
var ErrNilEntity = errors.New("sqlgen: nil entity")

// Option configures a Generator.
type Option func(*config)

type config struct {
	registry *schema.Registry
	queries  *Queries
	logger   *slog.Logger
	schema   []schema.Option
}

// WithRegistry sets the registry the mapping is loaded from.
// Defaults to schema.DefaultRegistry.
func WithRegistry(r *schema.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithQueries sets the custom query registry.
func WithQueries(q *Queries) Option {
	return func(c *config) {
		c.queries = q
	}
}

// WithLogger sets the logger used to report unresolved custom queries.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithSchema passes introspection options, such as schema.Table or
// schema.Fields, to the mapping of T.
func WithSchema(opts ...schema.Option) Option {
	return func(c *config) {
		c.schema = append(c.schema, opts...)
	}
}

// Generator builds the statements of entity type T. It holds no per-call
// state and is safe for concurrent use.
type Generator[T any] struct {
	typ     *schema.Type
	queries *Queries
	logger  *slog.Logger
}

// New returns the generator of T, introspecting T on first use.
//
//	gen, err := sqlgen.New[Person]()
//	stmt, err := gen.Insert(&Person{Name: &name})
//	_, err = db.ExecContext(ctx, stmt.SQL, stmt.Args...)
func New[T any](opts ...Option) (*Generator[T], error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = schema.DefaultRegistry
	}
	if c.queries == nil {
		c.queries = NewQueries()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	typ, err := c.registry.Load(reflect.TypeOf((*T)(nil)).Elem(), c.schema...)
	if err != nil {
		return nil, err
	}
	return &Generator[T]{typ: typ, queries: c.queries, logger: c.logger}, nil
}

// Type returns the mapping of T.
func (g *Generator[T]) Type() *schema.Type { return g.typ }

// Queries returns the custom query registry.
func (g *Generator[T]) Queries() *Queries { return g.queries }

// CreateTable returns the table definition, e.g.
//
//	create table if not exists person(id integer primary key autoincrement not null,name char(20) ,age char(20) not null)
func (g *Generator[T]) CreateTable() string {
	var b strings.Builder
	b.WriteString("create table if not exists ")
	b.WriteString(g.typ.Table)
	b.WriteByte('(')
	for i, c := range g.typ.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strings.ToLower(c.Name))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(c.Type))
		b.WriteByte(' ')
		b.WriteString(c.Constraint())
	}
	b.WriteByte(')')
	return b.String()
}

// Insert returns the insert of every non-identifier column. Absent values
// are bound as NULL.
func (g *Generator[T]) Insert(e *T) (Statement, error) {
	if e == nil {
		return Statement{}, ErrNilEntity
	}
	cols := g.typ.NonID()
	b := &builder{}
	b.WriteString("INSERT INTO ").WriteString(g.typ.Table)
	if len(cols) == 0 {
		return b.WriteString(" DEFAULT VALUES").Statement(), nil
	}
	b.WriteString("(")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.Name)
	}
	b.WriteString(")values(")
	for i, c := range cols {
		v, _, err := c.Value(e)
		if err != nil {
			return Statement{}, err
		}
		if i > 0 {
			b.WriteString(",")
		}
		b.Arg(v)
	}
	b.WriteString(")")
	return b.Statement(), nil
}

// Update returns an update of the present non-identifier columns, filtered
// by the default predicate. Absent columns are left untouched.
func (g *Generator[T]) Update(e *T) (Statement, error) {
	if e == nil {
		return Statement{}, ErrNilEntity
	}
	b := &builder{}
	b.WriteString("UPDATE ").WriteString(g.typ.Table).WriteString(" SET ")
	n := 0
	for _, c := range g.typ.NonID() {
		v, present, err := c.Value(e)
		if err != nil {
			return Statement{}, err
		}
		if !present {
			continue
		}
		if n > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.Name).WriteString("=").Arg(v)
		n++
	}
	if err := g.where(b, e); err != nil {
		return Statement{}, err
	}
	return b.Statement(), nil
}

// Delete returns a delete filtered by the default predicate.
func (g *Generator[T]) Delete(e *T) (Statement, error) {
	return g.filtered("DELETE FROM ", e)
}

// Select returns a select of all columns filtered by the default predicate.
func (g *Generator[T]) Select(e *T) (Statement, error) {
	return g.filtered("SELECT * FROM ", e)
}

// Count returns a row count filtered by the default predicate.
func (g *Generator[T]) Count(e *T) (Statement, error) {
	return g.filtered("SELECT COUNT(1) FROM ", e)
}

// SelectByID returns a select of the row with the given identifier.
func (g *Generator[T]) SelectByID(id any) Statement {
	return g.byID("SELECT * FROM ", id)
}

// DeleteByID returns a delete of the row with the given identifier.
func (g *Generator[T]) DeleteByID(id any) Statement {
	return g.byID("DELETE FROM ", id)
}

// Custom returns the custom query registered under key, with its parameters
// read from the named fields of e. An unknown key is logged and falls back
// to Select.
func (g *Generator[T]) Custom(key string, e *T) (Statement, error) {
	q, ok := g.queries.Lookup(key)
	if !ok {
		g.logger.Warn("sqlgen: custom query not registered, using default select",
			slog.String("key", key),
			slog.String("table", g.typ.Table),
		)
		return g.Select(e)
	}
	if e == nil {
		return Statement{}, ErrNilEntity
	}
	args := make([]any, 0, len(q.Params))
	for _, name := range q.Params {
		f, ok := g.typ.FieldByName(name)
		if !ok {
			g.logger.Debug("sqlgen: custom query parameter does not name a field",
				slog.String("key", key),
				slog.String("param", name),
			)
			args = append(args, nil)
			continue
		}
		v, _, err := f.Value(e)
		if err != nil {
			return Statement{}, err
		}
		args = append(args, v)
	}
	return Statement{SQL: g.expand(q.SQL), Args: args}, nil
}

// CustomArgs returns the custom query registered under key with the given
// arguments bound in order. It reports false for an unknown key.
func (g *Generator[T]) CustomArgs(key string, args ...any) (Statement, bool) {
	q, ok := g.queries.Lookup(key)
	if !ok {
		g.logger.Warn("sqlgen: custom query not registered",
			slog.String("key", key),
			slog.String("table", g.typ.Table),
		)
		return Statement{}, false
	}
	return Statement{SQL: g.expand(q.SQL), Args: args}, true
}

func (g *Generator[T]) expand(tmpl string) string {
	return strings.ReplaceAll(tmpl, TablePlaceholder, g.typ.Table)
}

func (g *Generator[T]) filtered(prefix string, e *T) (Statement, error) {
	if e == nil {
		return Statement{}, ErrNilEntity
	}
	b := &builder{}
	b.WriteString(prefix).WriteString(g.typ.Table)
	if err := g.where(b, e); err != nil {
		return Statement{}, err
	}
	return b.Statement(), nil
}

func (g *Generator[T]) byID(prefix string, id any) Statement {
	b := &builder{}
	b.WriteString(prefix).WriteString(g.typ.Table).
		WriteString(" WHERE ").WriteString(g.typ.IDColumn()).WriteString("=").Arg(id)
	return b.Statement()
}

// where appends the default predicate: the identifier alone when it is
// present, otherwise every present column. An entity with nothing present
// matches all rows.
func (g *Generator[T]) where(b *builder, e *T) error {
	b.WriteString(" WHERE 1=1")
	if id := g.typ.ID; id != nil {
		v, present, err := id.Value(e)
		if err != nil {
			return err
		}
		if present {
			b.WriteString(" and ").WriteString(id.Name).WriteString("=").Arg(v)
			return nil
		}
	}
	for _, c := range g.typ.NonID() {
		v, present, err := c.Value(e)
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		b.WriteString(" and ").WriteString(c.Name).WriteString("=").Arg(v)
	}
	return nil
}
