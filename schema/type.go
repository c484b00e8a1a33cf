package schema

import (
	"database/sql/driver"
	"errors"
	"reflect"
	"strings"

	"github.com/syssam/litesql"
	"github.com/syssam/litesql/schema/field"
)

// Type is the mapping of one entity struct type to a table. It is built once
// by Introspect and is safe for concurrent use afterwards.
type Type struct {
	// Name is the Go type name.
	Name string
	// Table is the lower-cased table name.
	Table string
	// ID is the identifier column, nil if the type has none.
	ID *Column
	// Columns holds the mapped columns in declaration order, the identifier included.
	Columns []*Column

	rtype     reflect.Type
	columnMap map[string]string // lower-cased column name -> Go field name.
	fields    map[string]*Field // lower-cased Go field name -> accessor.
}

// IDColumn returns the identifier column name, or "" when the type has no identifier.
func (t *Type) IDColumn() string {
	if t.ID == nil {
		return ""
	}
	return t.ID.Name
}

// GoType returns the reflected struct type.
func (t *Type) GoType() reflect.Type { return t.rtype }

// ColumnMap returns a copy of the lower-cased column name to Go field name
// mapping. Transient fields are included.
func (t *Type) ColumnMap() map[string]string {
	m := make(map[string]string, len(t.columnMap))
	for k, v := range t.columnMap {
		m[k] = v
	}
	return m
}

// FieldByColumn returns the accessor of the field a result column hydrates.
func (t *Type) FieldByColumn(column string) (*Field, bool) {
	name, ok := t.columnMap[strings.ToLower(column)]
	if !ok {
		return nil, false
	}
	return t.FieldByName(name)
}

// FieldByName returns the accessor of a Go field, matched case-insensitively.
// Every exported field is reachable, mapped or not.
func (t *Type) FieldByName(name string) (*Field, bool) {
	f, ok := t.fields[strings.ToLower(name)]
	return f, ok
}

// Column describes a mapped table column.
type Column struct {
	*Field
	// Name is the lower-cased column name.
	Name string
	// Type is the declared type token.
	Type string
	// NotNull reports the not null constraint of a plain column.
	NotNull bool
	// IsID reports whether the column is the identifier.
	IsID bool
	// Autoincrement reports an auto-assigned identifier.
	Autoincrement bool
}

// Constraint returns the column constraint used in the table definition.
func (c *Column) Constraint() string {
	switch {
	case c.IsID && c.Autoincrement:
		return "primary key autoincrement not null"
	case c.IsID:
		return "primary key not null"
	case c.NotNull:
		return "not null"
	default:
		return ""
	}
}

func newColumn(f *Field, d *field.Descriptor) *Column {
	return &Column{
		Field:         f,
		Name:          d.ColumnName(),
		Type:          d.TypeToken(),
		NotNull:       d.NotNull && d.Role != field.RoleID,
		IsID:          d.Role == field.RoleID,
		Autoincrement: d.Autoincrement && d.Role == field.RoleID,
	}
}

// Field is an accessor of one exported struct field, resolved once from its
// index path.
type Field struct {
	// GoName is the Go field name.
	GoName string
	// Index is the index path for reflect.Value.FieldByIndex.
	Index []int
	// Type is the Go type of the field.
	Type reflect.Type
}

var errNilEntity = errors.New("nil entity")

// Value reads the current value of the field off entity, a struct pointer or
// value. The value is absent (present=false) when it is a nil pointer,
// interface, map or slice, when a driver.Valuer returns nil, or when an
// embedded struct pointer on the path is nil. Pointers are dereferenced.
func (f *Field) Value(entity any) (v any, present bool, err error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false, litesql.NewFieldReadError(f.GoName, errNilEntity)
		}
		rv = rv.Elem()
	}
	return f.ValueOf(rv)
}

// ValueOf is like Value for a reflected struct value.
func (f *Field) ValueOf(rv reflect.Value) (any, bool, error) {
	fv, err := rv.FieldByIndexErr(f.Index)
	if err != nil {
		return nil, false, nil
	}
	switch fv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if fv.IsNil() {
			return nil, false, nil
		}
	}
	x := fv.Interface()
	valuer, ok := x.(driver.Valuer)
	if !ok && fv.CanAddr() {
		valuer, ok = fv.Addr().Interface().(driver.Valuer)
	}
	if ok {
		dv, err := valuer.Value()
		if err != nil {
			return nil, false, litesql.NewFieldReadError(f.GoName, err)
		}
		if dv == nil {
			return nil, false, nil
		}
		return dv, true, nil
	}
	if fv.Kind() == reflect.Pointer {
		return fv.Elem().Interface(), true, nil
	}
	return x, true, nil
}

// Set assigns a scanned database value to the field of entity, which must be
// a non-nil struct pointer. Nil embedded struct pointers on the path are allocated.
func (f *Field) Set(entity any, src any) error {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return litesql.NewFieldReadError(f.GoName, errors.New("set requires a non-nil struct pointer"))
	}
	return f.SetOf(rv.Elem(), src)
}

// SetOf is like Set for an addressable reflected struct value.
func (f *Field) SetOf(rv reflect.Value, src any) error {
	fv, err := fieldByIndexAlloc(rv, f.Index)
	if err != nil {
		return litesql.NewFieldReadError(f.GoName, err)
	}
	if err := assign(fv, src); err != nil {
		return litesql.NewFieldReadError(f.GoName, err)
	}
	return nil
}

// fieldByIndexAlloc walks the index path, allocating nil embedded pointers.
func fieldByIndexAlloc(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, errors.New("cannot allocate embedded struct pointer")
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}
