package sqlgen_test

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/litesql"
	"github.com/syssam/litesql/schema"
	"github.com/syssam/litesql/schema/field"
	"github.com/syssam/litesql/sqlgen"
)

type Person struct {
	ID   *int64  `sqlite:"id,pk,autoincrement"`
	Name *string `sqlite:"name"`
	Age  *int    `sqlite:"age,notnull"`
	Nick *string `sqlite:"nickname,transient"`
}

type Note struct {
	Title *string
	Body  *string
}

type Counter struct {
	ID *int64 `sqlite:"id,pk,autoincrement,type=INTEGER"`
}

type broken struct {
	ID    *int64 `sqlite:"id,pk"`
	Token brokenValuer
}

type brokenValuer struct{}

func (brokenValuer) Value() (driver.Value, error) { return nil, errors.New("unreadable") }

func ptr[T any](v T) *T { return &v }

func newGen[T any](t *testing.T, opts ...sqlgen.Option) *sqlgen.Generator[T] {
	t.Helper()
	g, err := sqlgen.New[T](append([]sqlgen.Option{sqlgen.WithRegistry(schema.NewRegistry())}, opts...)...)
	require.NoError(t, err)
	return g
}

func TestCreateTable(t *testing.T) {
	g := newGen[Person](t)
	assert.Equal(t,
		"create table if not exists person(id char(20) primary key autoincrement not null,name char(20) ,age char(20) not null)",
		g.CreateTable(),
	)

	c := newGen[Counter](t)
	assert.Equal(t, "create table if not exists counter(id integer primary key autoincrement not null)", c.CreateTable())
}

func TestCreateTableClauses(t *testing.T) {
	g := newGen[Person](t)
	ddl := g.CreateTable()
	body := ddl[strings.Index(ddl, "(")+1 : len(ddl)-1]
	// char(20) contains no comma, so splitting on commas yields the clauses.
	clauses := strings.Split(body, ",")
	require.Len(t, clauses, 1+len(g.Type().NonID()))
	pk := 0
	for _, c := range clauses {
		if strings.Contains(c, "primary key") {
			pk++
		}
	}
	assert.Equal(t, 1, pk)
	assert.Contains(t, clauses[0], "primary key")
}

func TestInsert(t *testing.T) {
	g := newGen[Person](t)
	stmt, err := g.Insert(&Person{Name: ptr("Alice"), Age: ptr(30)})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO person(name,age)values(?,?)", stmt.SQL)
	assert.Equal(t, []any{"Alice", 30}, stmt.Args)

	// Absent values bind as NULL and the identifier is never inserted.
	stmt, err = g.Insert(&Person{ID: ptr(int64(3)), Nick: ptr("al")})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO person(name,age)values(?,?)", stmt.SQL)
	assert.Equal(t, []any{nil, nil}, stmt.Args)

	c := newGen[Counter](t)
	stmt, err = c.Insert(&Counter{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO counter DEFAULT VALUES", stmt.SQL)
	assert.Empty(t, stmt.Args)

	_, err = g.Insert(nil)
	assert.ErrorIs(t, err, sqlgen.ErrNilEntity)
}

func TestUpdate(t *testing.T) {
	g := newGen[Person](t)
	stmt, err := g.Update(&Person{ID: ptr(int64(7)), Name: ptr("Bob")})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE person SET name=? WHERE 1=1 and id=?", stmt.SQL)
	assert.Equal(t, []any{"Bob", int64(7)}, stmt.Args)

	stmt, err = g.Update(&Person{Age: ptr(40), Name: ptr("Carol")})
	require.NoError(t, err)
	sql, args := stmt.Query()
	assert.Equal(t, "UPDATE person SET name=?,age=? WHERE 1=1 and name=? and age=?", sql)
	assert.Equal(t, []any{"Carol", 40, "Carol", 40}, args)

	// Nothing to set still yields a statement; the driver rejects it.
	stmt, err = g.Update(&Person{ID: ptr(int64(1))})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE person SET  WHERE 1=1 and id=?", stmt.SQL)
}

func TestDefaultPredicate(t *testing.T) {
	g := newGen[Person](t)
	tests := []struct {
		name string
		e    *Person
		sql  string
		args []any
	}{
		{
			name: "identifier_short_circuits",
			e:    &Person{ID: ptr(int64(9)), Name: ptr("Dan"), Age: ptr(20)},
			sql:  "SELECT * FROM person WHERE 1=1 and id=?",
			args: []any{int64(9)},
		},
		{
			name: "present_columns",
			e:    &Person{Age: ptr(20)},
			sql:  "SELECT * FROM person WHERE 1=1 and age=?",
			args: []any{20},
		},
		{
			name: "transient_ignored",
			e:    &Person{Nick: ptr("d")},
			sql:  "SELECT * FROM person WHERE 1=1",
		},
		{
			name: "match_all",
			e:    &Person{},
			sql:  "SELECT * FROM person WHERE 1=1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := g.Select(tt.e)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, stmt.SQL)
			if tt.args == nil {
				assert.Empty(t, stmt.Args)
			} else {
				assert.Equal(t, tt.args, stmt.Args)
			}
		})
	}
}

func TestDeleteAndCount(t *testing.T) {
	g := newGen[Person](t)
	stmt, err := g.Delete(&Person{Name: ptr("Eve")})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM person WHERE 1=1 and name=?", stmt.SQL)
	assert.Equal(t, []any{"Eve"}, stmt.Args)

	stmt, err = g.Count(&Person{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(1) FROM person WHERE 1=1", stmt.SQL)
	assert.Empty(t, stmt.Args)

	_, err = g.Delete(nil)
	assert.ErrorIs(t, err, sqlgen.ErrNilEntity)
	_, err = g.Count(nil)
	assert.ErrorIs(t, err, sqlgen.ErrNilEntity)
}

func TestByID(t *testing.T) {
	g := newGen[Person](t)
	stmt := g.SelectByID("42")
	assert.Equal(t, "SELECT * FROM person WHERE id=?", stmt.SQL)
	assert.Equal(t, []any{"42"}, stmt.Args)

	stmt = g.DeleteByID("42")
	assert.Equal(t, "DELETE FROM person WHERE id=?", stmt.SQL)
	assert.Equal(t, []any{"42"}, stmt.Args)

	// Without an identifier the empty column name is used as is.
	n := newGen[Note](t)
	assert.Equal(t, "SELECT * FROM note WHERE =?", n.SelectByID(1).SQL)
}

func TestFieldReadError(t *testing.T) {
	g := newGen[broken](t)
	_, err := g.Insert(&broken{})
	require.Error(t, err)
	assert.True(t, litesql.IsFieldReadError(err))

	_, err = g.Select(&broken{})
	assert.True(t, litesql.IsFieldReadError(err))

	// The identifier short-circuits before the unreadable column is read.
	stmt, err := g.Select(&broken{ID: ptr(int64(1))})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM broken WHERE 1=1 and id=?", stmt.SQL)
}

func TestWithSchema(t *testing.T) {
	g := newGen[Note](t, sqlgen.WithSchema(
		schema.Table("notes"),
		schema.Fields(field.ID("Title").Type("text")),
	))
	assert.Equal(t, "create table if not exists notes(title text primary key not null,body char(20) )", g.CreateTable())
	stmt, err := g.Update(&Note{Title: ptr("a"), Body: ptr("b")})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE notes SET body=? WHERE 1=1 and title=?", stmt.SQL)
	assert.Equal(t, []any{"b", "a"}, stmt.Args)

	_, err = sqlgen.New[Note](sqlgen.WithSchema(schema.Fields(field.Column("Nope"))))
	assert.True(t, litesql.IsMappingError(err))
}

func TestCustom(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	qs := sqlgen.NewQueries().
		Register("byName", sqlgen.Query{
			SQL:    "SELECT * FROM this.tableName WHERE name=? and nickname=?",
			Params: []string{"NAME", "nick"},
		}).
		Register("older", sqlgen.Query{
			SQL:    "SELECT * FROM this.tableName WHERE age>? AND age<?",
			Params: []string{"missing"},
		})
	g := newGen[Person](t, sqlgen.WithQueries(qs), sqlgen.WithLogger(logger))

	stmt, err := g.Custom("byName", &Person{Name: ptr("Fay"), Nick: ptr("f")})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM person WHERE name=? and nickname=?", stmt.SQL)
	assert.Equal(t, []any{"Fay", "f"}, stmt.Args)

	stmt, err = g.Custom("older", &Person{})
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, stmt.Args)
	assert.Contains(t, buf.String(), "param=missing")

	// Unknown keys fall back to the default select.
	buf.Reset()
	stmt, err = g.Custom("nope", &Person{Age: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM person WHERE 1=1 and age=?", stmt.SQL)
	assert.Equal(t, []any{5}, stmt.Args)
	assert.Contains(t, buf.String(), "key=nope")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestCustomArgs(t *testing.T) {
	var buf bytes.Buffer
	qs := sqlgen.NewQueries().Register("between", sqlgen.Query{
		SQL:    "SELECT * FROM this.tableName WHERE age>? AND age<?",
		Params: []string{"Age"},
	})
	g := newGen[Person](t, sqlgen.WithQueries(qs), sqlgen.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	stmt, ok := g.CustomArgs("between", 18, 65)
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM person WHERE age>? AND age<?", stmt.SQL)
	assert.Equal(t, []any{18, 65}, stmt.Args)

	stmt, ok = g.CustomArgs("nope", 1)
	assert.False(t, ok)
	assert.Equal(t, sqlgen.Statement{}, stmt)
	assert.Contains(t, buf.String(), "key=nope")
}

func TestQueries(t *testing.T) {
	var nilQueries *sqlgen.Queries
	_, ok := nilQueries.Lookup("x")
	assert.False(t, ok)
	assert.Nil(t, nilQueries.Keys())

	qs := &sqlgen.Queries{}
	qs.Register("b", sqlgen.Query{SQL: "1"}).Register("a", sqlgen.Query{SQL: "2"})
	qs.Register("b", sqlgen.Query{SQL: "3"})
	q, ok := qs.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "3", q.SQL)
	assert.Equal(t, []string{"a", "b"}, qs.Keys())
}

func TestConcurrentGenerate(t *testing.T) {
	g := newGen[Person](t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := int64(i)
			stmt, err := g.Update(&Person{ID: &id, Name: ptr("n")})
			assert.NoError(t, err)
			assert.Equal(t, []any{"n", id}, stmt.Args)
		}(i)
	}
	wg.Wait()
}

func BenchmarkUpdate(b *testing.B) {
	g, err := sqlgen.New[Person]()
	if err != nil {
		b.Fatal(err)
	}
	e := &Person{ID: ptr(int64(1)), Name: ptr("bench"), Age: ptr(1)}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := g.Update(e); err != nil {
			b.Fatal(err)
		}
	}
}
