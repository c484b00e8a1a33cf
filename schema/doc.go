// Package schema maps Go entity structs to SQLite tables.
//
// A mapping is read once per type from the struct's exported fields and
// their `sqlite` tags, optionally overridden by [field] builders:
//
//	type Person struct {
//	    ID   int64  `sqlite:"id,pk,autoincrement,type=integer"`
//	    Name string `sqlite:"name"`
//	    Age  *int   `sqlite:"age,notnull"`
//	    Nick string `sqlite:"nickname,transient"`
//	    Memo string `sqlite:"-"`
//	}
//
//	t, err := schema.For[Person]()
//
// The table name is the lower-cased result of a TableName method, or the
// struct name. Untagged exported fields become columns named after the
// lower-cased field name with type char(20). Transient fields are left out of
// the table but their column names still hydrate them from query results.
//
// Every column carries an accessor built from the struct index path. Reading
// a field reports whether the value is present: nil pointers, interfaces,
// maps and slices are absent, as is a [database/sql/driver.Valuer] that
// yields nil. Statements built from an entity only constrain on present
// values.
package schema
