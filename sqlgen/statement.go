package sqlgen

import "strings"

// Statement is a generated SQL text and its positional arguments. It is a
// plain value owned by the caller.
type Statement struct {
	SQL  string
	Args []any
}

// Query returns the statement text and arguments.
func (s Statement) Query() (string, []any) {
	return s.SQL, s.Args
}

// String returns the statement text.
func (s Statement) String() string {
	return s.SQL
}

// Querier wraps the basic Query method implemented by statements.
type Querier interface {
	Query() (string, []any)
}

// builder accumulates statement text and arguments.
type builder struct {
	sb   strings.Builder
	args []any
}

func (b *builder) WriteString(s string) *builder {
	b.sb.WriteString(s)
	return b
}

// Arg appends a placeholder and its value.
func (b *builder) Arg(v any) *builder {
	b.sb.WriteByte('?')
	b.args = append(b.args, v)
	return b
}

func (b *builder) Statement() Statement {
	return Statement{SQL: b.sb.String(), Args: b.args}
}
