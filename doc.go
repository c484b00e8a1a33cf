// Package litesql maps tagged Go structs onto SQLite tables.
//
// A struct describes its table with `sqlite` tags:
//
//	type Person struct {
//		ID   *int64  `sqlite:"id,pk,autoincrement,type=integer"`
//		Name *string `sqlite:"name,notnull"`
//		Age  *int    `sqlite:"age,type=integer"`
//	}
//
// Package schema introspects such types, package sqlgen turns an entity into
// parameterized statements, and package dao runs them against a
// dialect.Driver. Only fields that are present (non-nil) take part in a
// statement, so the same entity works as a record and as a filter.
//
// This package holds the error types shared by the others.
package litesql
