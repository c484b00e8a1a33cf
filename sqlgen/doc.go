// Package sqlgen generates SQLite statements from entity mappings.
//
// A Generator is built once per entity type and returns each statement as a
// Statement value: the SQL text and its positional arguments.
//
// Statements built from an entity filter by the default predicate. It always
// starts with WHERE 1=1. When the identifier holds a value the predicate is
// that identifier alone, otherwise it is the conjunction of every present
// column:
//
//	gen.Update(&Person{ID: &id, Name: &name})
//	// UPDATE person SET name=? WHERE 1=1 and id=?
//
//	gen.Select(&Person{Name: &name})
//	// SELECT * FROM person WHERE 1=1 and name=?
//
// An entity with nothing present matches every row.
//
// Custom queries are registered by key in a Queries registry. The token
// this.tableName in a template is replaced with the table name:
//
//	qs := sqlgen.NewQueries().Register("byName", sqlgen.Query{
//		SQL:    "SELECT * FROM this.tableName WHERE name=?",
//		Params: []string{"Name"},
//	})
//	gen, _ := sqlgen.New[Person](sqlgen.WithQueries(qs))
//	stmt, _ := gen.Custom("byName", &Person{Name: &name})
package sqlgen
