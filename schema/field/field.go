package field

import (
	"fmt"
	"strings"
)

// DefaultType is the column type token used when none is declared.
const DefaultType = "char(20)"

// TagKey is the struct tag key read by the schema introspector.
const TagKey = "sqlite"

// Role classifies how a struct field takes part in the mapping.
type Role uint8

// Field roles.
const (
	// RoleColumn is a plain mapped column.
	RoleColumn Role = iota
	// RoleID is the identifier (primary key) column.
	RoleID
	// RoleTransient is excluded from DDL and statements but still
	// registered in the column map, so rows can hydrate it.
	RoleTransient
	// RoleIgnore is not mapped at all.
	RoleIgnore
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleColumn:
		return "column"
	case RoleID:
		return "id"
	case RoleTransient:
		return "transient"
	case RoleIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

// A Descriptor for field configuration.
type Descriptor struct {
	Name          string // Go struct field name.
	Column        string // column name override, empty for the lower-cased field name.
	Type          string // column type token, empty for DefaultType.
	Role          Role   // mapping role.
	NotNull       bool   // not null constraint (columns only).
	Autoincrement bool   // autoincrement (identifier only).
	Err           error  // first configuration error, if any.
}

// ColumnName returns the resolved, lower-cased column name.
func (d *Descriptor) ColumnName() string {
	if d.Column != "" {
		return strings.ToLower(d.Column)
	}
	return strings.ToLower(d.Name)
}

// TypeToken returns the declared type token or DefaultType.
func (d *Descriptor) TypeToken() string {
	if d.Type != "" {
		return d.Type
	}
	return DefaultType
}

// Field is implemented by the field builders.
type Field interface {
	Descriptor() *Descriptor
}

// Builder is the builder for a mapped field.
type Builder struct {
	desc *Descriptor
}

// ID returns a builder for the identifier field with the given Go field name.
//
//	field.ID("ID").Type("integer").Autoincrement()
func ID(name string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Role: RoleID}}
}

// Column returns a builder for a plain column backed by the given Go field name.
//
//	field.Column("Age").Type("integer").NotNull()
func Column(name string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Role: RoleColumn}}
}

// Transient returns a builder for a field that is left out of the table
// definition and the generated statements, but still hydrated from rows.
//
//	field.Transient("Nick").Column("nickname")
func Transient(name string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Role: RoleTransient}}
}

// Ignore returns a builder for a field that is not mapped at all.
func Ignore(name string) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Role: RoleIgnore}}
}

// Column overrides the column name.
func (b *Builder) Column(name string) *Builder {
	b.desc.Column = name
	return b
}

// Type sets the column type token, e.g. "integer" or "varchar(64)".
func (b *Builder) Type(token string) *Builder {
	b.desc.Type = token
	return b
}

// NotNull adds the not null constraint to a plain column.
func (b *Builder) NotNull() *Builder {
	if b.desc.Role != RoleColumn && b.desc.Role != RoleTransient {
		b.fail(fmt.Errorf("field %q: notnull is not valid on a %s field", b.desc.Name, b.desc.Role))
	}
	b.desc.NotNull = true
	return b
}

// Autoincrement marks the identifier as auto-assigned by the store.
func (b *Builder) Autoincrement() *Builder {
	if b.desc.Role != RoleID {
		b.fail(fmt.Errorf("field %q: autoincrement is only valid on the identifier", b.desc.Name))
	}
	b.desc.Autoincrement = true
	return b
}

// Descriptor implements the Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}

func (b *Builder) fail(err error) {
	if b.desc.Err == nil {
		b.desc.Err = err
	}
}
