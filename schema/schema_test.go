package schema_test

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/litesql"
	"github.com/syssam/litesql/schema"
	"github.com/syssam/litesql/schema/field"
)

type Person struct {
	ID     *int64  `sqlite:"id,pk,autoincrement"`
	Name   *string `sqlite:"name"`
	Age    *int    `sqlite:"age,notnull"`
	Nick   string  `sqlite:"nickname,transient"`
	Memo   string  `sqlite:"-"`
	secret string
}

type Account struct {
	Email string
	Score float64 `sqlite:",type=real"`
}

func (Account) TableName() string { return "Accounts" }

type Audit struct {
	Created time.Time
	Updated time.Time
}

type Post struct {
	ID    int64 `sqlite:",pk,type=integer"`
	Title string
	Audit
}

// TestIntrospect tests the mapping read from tags.
func TestIntrospect(t *testing.T) {
	typ, err := schema.For[Person]()
	require.NoError(t, err)

	assert.Equal(t, "Person", typ.Name)
	assert.Equal(t, "person", typ.Table)
	assert.Equal(t, "id", typ.IDColumn())
	require.NotNil(t, typ.ID)
	assert.True(t, typ.ID.Autoincrement)
	assert.Equal(t, "primary key autoincrement not null", typ.ID.Constraint())

	names := make([]string, 0, len(typ.Columns))
	for _, c := range typ.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "name", "age"}, names)
	assert.Equal(t, "", typ.Columns[1].Constraint())
	assert.Equal(t, "not null", typ.Columns[2].Constraint())
	assert.Equal(t, field.DefaultType, typ.Columns[1].Type)
	assert.Len(t, typ.NonID(), 2)

	assert.Equal(t, map[string]string{
		"id":       "ID",
		"name":     "Name",
		"age":      "Age",
		"nickname": "Nick",
	}, typ.ColumnMap())

	f, ok := typ.FieldByColumn("NICKNAME")
	require.True(t, ok)
	assert.Equal(t, "Nick", f.GoName)
	_, ok = typ.FieldByColumn("memo")
	assert.False(t, ok)

	// Unmapped exported fields still resolve by name.
	f, ok = typ.FieldByName("memo")
	require.True(t, ok)
	assert.Equal(t, "Memo", f.GoName)
	_, ok = typ.FieldByName("secret")
	assert.False(t, ok)
}

func TestIntrospectTableName(t *testing.T) {
	typ, err := schema.For[Account]()
	require.NoError(t, err)
	assert.Equal(t, "accounts", typ.Table)
	assert.Nil(t, typ.ID)
	assert.Equal(t, "", typ.IDColumn())
	assert.Equal(t, "real", typ.Columns[1].Type)

	typ, err = schema.For[*Account](schema.Table("Members"))
	require.NoError(t, err)
	assert.Equal(t, "members", typ.Table)
	assert.Equal(t, reflect.TypeOf((*Account)(nil)).Elem(), typ.GoType())
}

func TestIntrospectEmbedded(t *testing.T) {
	typ, err := schema.For[Post]()
	require.NoError(t, err)
	names := make([]string, 0, len(typ.Columns))
	for _, c := range typ.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "title", "created", "updated"}, names)
	assert.Equal(t, "primary key not null", typ.ID.Constraint())
	assert.Equal(t, []int{2, 0}, typ.Columns[2].Index)
}

func TestIntrospectFields(t *testing.T) {
	typ, err := schema.For[Account](schema.Fields(
		field.ID("email").Type("varchar(64)"),
		field.Transient("Score").Column("points"),
	))
	require.NoError(t, err)
	require.NotNil(t, typ.ID)
	assert.Equal(t, "email", typ.ID.Name)
	assert.Equal(t, "varchar(64)", typ.ID.Type)
	assert.Len(t, typ.Columns, 1)
	assert.Equal(t, "Score", typ.ColumnMap()["points"])
}

func TestIntrospectErrors(t *testing.T) {
	_, err := schema.Introspect(reflect.TypeOf((*int)(nil)).Elem())
	require.Error(t, err)
	assert.True(t, litesql.IsMappingError(err))

	type twoIDs struct {
		A int `sqlite:",pk"`
		B int `sqlite:",pk"`
	}
	_, err = schema.For[twoIDs]()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one identifier")

	type badTag struct {
		A int `sqlite:",unique"`
	}
	_, err = schema.For[badTag]()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tag option "unique"`)

	_, err = schema.For[Account](schema.Fields(field.Column("Missing")))
	require.Error(t, err)
	assert.True(t, litesql.IsMappingError(err))
	assert.Contains(t, err.Error(), `"Missing"`)
}

type nullValuer struct{ v *string }

func (n nullValuer) Value() (driver.Value, error) {
	if n.v == nil {
		return nil, nil
	}
	return *n.v, nil
}

type failValuer struct{}

func (failValuer) Value() (driver.Value, error) { return nil, errors.New("boom") }

type values struct {
	Ptr    *int
	Plain  int
	Slice  []byte
	Map    map[string]int
	Any    any
	Null   nullValuer
	Fail   failValuer
	String sql.NullString
}

func TestFieldValue(t *testing.T) {
	typ, err := schema.For[values]()
	require.NoError(t, err)
	get := func(name string, e any) (any, bool, error) {
		f, ok := typ.FieldByName(name)
		require.True(t, ok, name)
		return f.Value(e)
	}

	e := &values{}
	for _, name := range []string{"Ptr", "Slice", "Map", "Any", "Null", "String"} {
		v, present, err := get(name, e)
		require.NoError(t, err, name)
		assert.False(t, present, name)
		assert.Nil(t, v, name)
	}

	v, present, err := get("Plain", e)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, 0, v)

	n, s := 7, "x"
	e = &values{Ptr: &n, Null: nullValuer{v: &s}, String: sql.NullString{String: "y", Valid: true}}
	v, present, err = get("Ptr", e)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, 7, v)

	v, present, err = get("Null", e)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "x", v)

	v, present, err = get("String", *e)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "y", v)

	_, _, err = get("Fail", e)
	require.Error(t, err)
	assert.True(t, litesql.IsFieldReadError(err))

	_, _, err = get("Plain", (*values)(nil))
	assert.True(t, litesql.IsFieldReadError(err))
}

type hydrate struct {
	ID      int64
	Age     *int
	Score   float64
	Active  bool
	Name    string
	Blob    []byte
	When    time.Time
	Label   sql.NullString
	Counter uint8
}

func TestFieldSet(t *testing.T) {
	typ, err := schema.For[hydrate]()
	require.NoError(t, err)
	set := func(e *hydrate, name string, v any) error {
		f, ok := typ.FieldByName(name)
		require.True(t, ok, name)
		return f.Set(e, v)
	}

	e := &hydrate{}
	require.NoError(t, set(e, "ID", "42"))
	require.NoError(t, set(e, "Age", int64(30)))
	require.NoError(t, set(e, "Score", "1.5"))
	require.NoError(t, set(e, "Active", int64(1)))
	require.NoError(t, set(e, "Name", []byte("Bob")))
	require.NoError(t, set(e, "Blob", "raw"))
	require.NoError(t, set(e, "When", "2024-01-02 03:04:05"))
	require.NoError(t, set(e, "Label", "tag"))
	require.NoError(t, set(e, "Counter", int64(9)))

	assert.Equal(t, int64(42), e.ID)
	require.NotNil(t, e.Age)
	assert.Equal(t, 30, *e.Age)
	assert.Equal(t, 1.5, e.Score)
	assert.True(t, e.Active)
	assert.Equal(t, "Bob", e.Name)
	assert.Equal(t, []byte("raw"), e.Blob)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), e.When)
	assert.Equal(t, sql.NullString{String: "tag", Valid: true}, e.Label)
	assert.Equal(t, uint8(9), e.Counter)

	require.NoError(t, set(e, "Age", nil))
	assert.Nil(t, e.Age)
	require.NoError(t, set(e, "Label", nil))
	assert.False(t, e.Label.Valid)

	err = set(e, "ID", "abc")
	require.Error(t, err)
	assert.True(t, litesql.IsFieldReadError(err))
	assert.Error(t, set(e, "Counter", int64(300)))

	f, _ := typ.FieldByName("ID")
	assert.Error(t, f.Set(hydrate{}, 1))
}

func TestFieldSetIntegral(t *testing.T) {
	typ, err := schema.For[hydrate]()
	require.NoError(t, err)
	id, _ := typ.FieldByName("ID")
	age, _ := typ.FieldByName("Age")

	e := &hydrate{}
	require.NoError(t, age.Set(e, 3.0))
	require.NotNil(t, e.Age)
	assert.Equal(t, 3, *e.Age)
	require.NoError(t, id.Set(e, uint64(5)))
	assert.Equal(t, int64(5), e.ID)

	for _, v := range []any{3.7, -0.5, math.NaN(), math.Inf(1), 1e19, float64(math.MaxInt64), uint64(math.MaxUint64)} {
		e := &hydrate{ID: 1}
		err := id.Set(e, v)
		require.Error(t, err, "%v", v)
		assert.True(t, litesql.IsFieldReadError(err))
		assert.Equal(t, int64(1), e.ID, "%v", v)
	}
	assert.Error(t, age.Set(e, 3.7))
	assert.Equal(t, 3, *e.Age)
}

type embeddedPtr struct {
	Name string
	*Audit
}

func TestFieldSetAllocatesEmbedded(t *testing.T) {
	typ, err := schema.For[embeddedPtr]()
	require.NoError(t, err)
	f, ok := typ.FieldByColumn("created")
	require.True(t, ok)

	e := &embeddedPtr{}
	v, present, err := f.Value(e)
	require.NoError(t, err)
	assert.False(t, present)
	assert.Nil(t, v)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, f.Set(e, now))
	require.NotNil(t, e.Audit)
	assert.Equal(t, now, e.Created)
}

func TestRegistry(t *testing.T) {
	r := schema.NewRegistry()
	var wg sync.WaitGroup
	types := make([]*schema.Type, 8)
	for i := range types {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ, err := r.Load(reflect.TypeOf((*Person)(nil)).Elem())
			assert.NoError(t, err)
			types[i] = typ
		}(i)
	}
	wg.Wait()
	for _, typ := range types[1:] {
		assert.Same(t, types[0], typ)
	}
	assert.Equal(t, 1, r.Len())

	other, err := r.Load(reflect.TypeOf((**Person)(nil)).Elem(), schema.Table("people"))
	require.NoError(t, err)
	assert.Equal(t, "people", other.Table)
	assert.Equal(t, 2, r.Len())

	// Overrides bypass the cache.
	_, err = r.Load(reflect.TypeOf((*Account)(nil)).Elem(), schema.Fields(field.ID("Email")))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	_, err = r.Load(reflect.TypeOf((*int)(nil)).Elem())
	assert.Error(t, err)
	assert.Equal(t, 2, r.Len())

	r.Clear()
	assert.Equal(t, 0, r.Len())
}

func TestValidate(t *testing.T) {
	typ, err := schema.For[Person]()
	require.NoError(t, err)
	r := schema.Validate(typ)
	require.True(t, r.HasErrors())
	assert.Contains(t, r.Errors[0].Error(), `person.id: autoincrement requires type integer, got "char(20)"`)

	typ, err = schema.For[Account]()
	require.NoError(t, err)
	r = schema.Validate(typ)
	assert.False(t, r.HasErrors())
	require.True(t, r.HasWarnings())
	assert.Contains(t, r.String(), "table has no identifier")

	type dup struct {
		ID int64  `sqlite:"id,pk,autoincrement,type=integer"`
		A  string `sqlite:"name"`
		B  string `sqlite:"name"`
		C  string `sqlite:"bad-name"`
	}
	typ, err = schema.For[dup]()
	require.NoError(t, err)
	r = schema.Validate(typ)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "dup.name: duplicate column name", r.Errors[0].Error())
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "bad-name", r.Warnings[0].Column)

	typ, err = schema.For[Post]()
	require.NoError(t, err)
	assert.Equal(t, "No issues found", schema.Validate(typ).String())
}
