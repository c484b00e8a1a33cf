package dao

import (
	"fmt"
	"reflect"

	"github.com/syssam/litesql/dialect/sql"
	"github.com/syssam/litesql/schema"
)

// scanAll hydrates one entity per row. Result columns are matched to fields
// through the column map; columns without a field are skipped.
func scanAll[T any](rows sql.ColumnScanner, t *schema.Type) ([]*T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	fields := make([]*schema.Field, len(columns))
	for i, c := range columns {
		if f, ok := t.FieldByColumn(c); ok {
			fields[i] = f
		}
	}
	var out []*T
	for rows.Next() {
		values := scanValues(len(columns))
		if err := rows.Scan(values...); err != nil {
			return nil, err
		}
		e := new(T)
		rv := reflect.ValueOf(e).Elem()
		for i, f := range fields {
			if f == nil {
				continue
			}
			if err := f.SetOf(rv, *values[i].(*any)); err != nil {
				return nil, fmt.Errorf("column %q: %w", columns[i], err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanValues(n int) []any {
	values := make([]any, n)
	for i := range values {
		values[i] = new(any)
	}
	return values
}
