package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/litesql/dialect/sql"
)

// ValidationError represents a mapping validation finding.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of mapping validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// Validate reports problems in a mapping that statement generation does not
// catch itself. Generation never consults it.
//
//	if r := schema.Validate(t); r.HasErrors() {
//	    log.Fatal(r)
//	}
func Validate(t *Type) *ValidationResult {
	result := &ValidationResult{}

	if t.ID == nil {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Table,
			Message: "table has no identifier; by-id statements will use an empty column name",
		})
	}

	if !sql.IsValidIdentifier(t.Table) {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Table,
			Message: "table name is not a plain identifier and is emitted unquoted",
		})
	}

	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Table,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true

		if !sql.IsValidIdentifier(c.Name) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.Table,
				Column:  c.Name,
				Message: "column name is not a plain identifier and is emitted unquoted",
			})
		}

		// SQLite accepts AUTOINCREMENT on INTEGER PRIMARY KEY only.
		if c.Autoincrement && !strings.EqualFold(strings.TrimSpace(c.Type), "integer") {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Table,
				Column:  c.Name,
				Message: fmt.Sprintf("autoincrement requires type integer, got %q", c.Type),
			})
		}
	}

	return result
}
