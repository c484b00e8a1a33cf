// Package field describes how the fields of an entity struct map to table
// columns.
//
// A mapping is declared with struct tags:
//
//	type Person struct {
//	    ID   *int64  `sqlite:"id,pk,autoincrement,type=integer"`
//	    Name *string `sqlite:"name"`
//	    Age  *int    `sqlite:"age,notnull"`
//	    Nick *string `sqlite:"nickname,transient"`
//	    Memo string  `sqlite:"-"`
//	}
//
// or with the equivalent builders, which take precedence over tags:
//
//	field.ID("ID").Type("integer").Autoincrement()
//	field.Column("Age").NotNull()
//	field.Transient("Nick").Column("nickname")
//	field.Ignore("Memo")
//
// # Defaults
//
// The column name defaults to the lower-cased Go field name and the type
// token to DefaultType ("char(20)"). Exported fields without a tag are plain
// columns.
//
// # Roles
//
//   - RoleID: the identifier. "primary key not null", or
//     "primary key autoincrement not null" with Autoincrement.
//   - RoleColumn: a plain column, optionally "not null".
//   - RoleTransient: left out of the table and the statements; rows can
//     still hydrate it through its column name.
//   - RoleIgnore: not mapped.
package field
