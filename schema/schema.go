package schema

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/litesql"
	"github.com/syssam/litesql/schema/field"
)

// Option configures introspection.
type Option func(*options)

type options struct {
	table  string
	fields []field.Field
}

// Table overrides the table name. It takes precedence over a TableName method.
func Table(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// Fields overrides the tag-derived descriptors of the named Go fields.
//
//	schema.For[Person](schema.Fields(
//		field.ID("ID").Type("integer").Autoincrement(),
//		field.Transient("Nick"),
//	))
func Fields(fs ...field.Field) Option {
	return func(o *options) {
		o.fields = append(o.fields, fs...)
	}
}

// Namer is implemented by entities that name their own table.
type Namer interface {
	TableName() string
}

var (
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	namerType  = reflect.TypeOf((*Namer)(nil)).Elem()
)

// For returns the mapping of the entity type T.
func For[T any](opts ...Option) (*Type, error) {
	return Introspect(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

// Introspect walks the exported fields of a struct type, or pointer to one,
// and returns its mapping. Fields are visited in declaration order and
// anonymous embedded structs are flattened in place.
func Introspect(rt reflect.Type, opts ...Option) (*Type, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, litesql.NewMappingError(fmt.Sprint(rt), "entity type must be a struct")
	}
	t := &Type{
		Name:      rt.Name(),
		Table:     strings.ToLower(tableName(rt, o.table)),
		rtype:     rt,
		columnMap: make(map[string]string),
		fields:    make(map[string]*Field),
	}
	overrides := make(map[string]*field.Descriptor, len(o.fields))
	for _, f := range o.fields {
		d := f.Descriptor()
		overrides[strings.ToLower(d.Name)] = d
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, litesql.NewMappingError(rt.Name(), format, args...))
	}
	for _, sf := range exportedFields(rt) {
		f := &Field{GoName: sf.Name, Index: sf.Index, Type: sf.Type}
		key := strings.ToLower(sf.Name)
		t.fields[key] = f
		d, ok := overrides[key]
		if ok {
			delete(overrides, key)
		} else {
			d = field.Parse(sf.Name, sf.Tag.Get(field.TagKey))
		}
		if d.Err != nil {
			fail("%v", d.Err)
		}
		switch d.Role {
		case field.RoleIgnore:
		case field.RoleTransient:
			t.columnMap[d.ColumnName()] = sf.Name
		case field.RoleID:
			if t.ID != nil {
				fail("more than one identifier: %q and %q", t.ID.GoName, sf.Name)
				continue
			}
			c := newColumn(f, d)
			t.ID = c
			t.Columns = append(t.Columns, c)
			t.columnMap[c.Name] = sf.Name
		default:
			c := newColumn(f, d)
			t.Columns = append(t.Columns, c)
			t.columnMap[c.Name] = sf.Name
		}
	}
	for _, d := range overrides {
		fail("field override %q does not match an exported field", d.Name)
	}
	if len(errs) > 0 {
		return nil, litesql.NewAggregateError(errs...)
	}
	return t, nil
}

// NonID returns the mapped columns other than the identifier, in order.
func (t *Type) NonID() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.IsID {
			cols = append(cols, c)
		}
	}
	return cols
}

func tableName(rt reflect.Type, override string) string {
	if override != "" {
		return override
	}
	switch {
	case rt.Implements(namerType):
		return reflect.Zero(rt).Interface().(Namer).TableName()
	case reflect.PointerTo(rt).Implements(namerType):
		return reflect.New(rt).Interface().(Namer).TableName()
	}
	return rt.Name()
}

// exportedFields returns the exported fields of rt in declaration order with
// anonymous structs expanded in place. Embedded structs that are values in
// their own right (time.Time, Valuer or Scanner types) stay single fields.
func exportedFields(rt reflect.Type) []reflect.StructField {
	var fields []reflect.StructField
	var walk func(reflect.Type, []int)
	walk = func(rt reflect.Type, index []int) {
		for i := 0; i < rt.NumField(); i++ {
			sf := rt.Field(i)
			sf.Index = append(append([]int(nil), index...), i)
			if sf.Anonymous {
				et := sf.Type
				if et.Kind() == reflect.Pointer {
					et = et.Elem()
				}
				if et.Kind() == reflect.Struct && !isValueType(et) && sf.Tag.Get(field.TagKey) == "" {
					walk(et, sf.Index)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			fields = append(fields, sf)
		}
	}
	walk(rt, nil)
	// A promoted field shadowed by a shallower one of the same name is dropped.
	depth := make(map[string]int, len(fields))
	for _, sf := range fields {
		key := strings.ToLower(sf.Name)
		if d, ok := depth[key]; !ok || len(sf.Index) < d {
			depth[key] = len(sf.Index)
		}
	}
	kept := fields[:0]
	for _, sf := range fields {
		key := strings.ToLower(sf.Name)
		if d, ok := depth[key]; ok && len(sf.Index) == d {
			kept = append(kept, sf)
			delete(depth, key)
		}
	}
	return kept
}

func isValueType(rt reflect.Type) bool {
	if rt == timeType {
		return true
	}
	pt := reflect.PointerTo(rt)
	return rt.Implements(valuerType) || pt.Implements(valuerType) || pt.Implements(scannerType)
}
