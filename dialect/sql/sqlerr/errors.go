// Package sqlerr classifies SQLite constraint violations reported by either
// compiled-in engine.
package sqlerr

import (
	"errors"
	"strings"
)

// errorCoder is implemented by modernc.org/sqlite errors, whose Code is the
// extended result code.
type errorCoder interface {
	Code() int
}

// SQLite extended result codes for constraint violations.
// See https://www.sqlite.org/rescode.html.
const (
	sqliteConstraint           = 19
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := extendedCode(err); ok && code&0xff == sqliteConstraint {
		return true
	}
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a uniqueness or
// primary key constraint violation.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := extendedCode(err); ok {
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyConstraintError reports if the error resulted from a foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := extendedCode(err); ok {
		return code == sqliteConstraintForeignKey
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsCheckConstraintError reports if the error resulted from a check constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := extendedCode(err); ok {
		return code == sqliteConstraintCheck
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsNotNullConstraintError reports if the error resulted from writing NULL
// into a "not null" column.
func IsNotNullConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := extendedCode(err); ok {
		return code == sqliteConstraintNotNull
	}
	return strings.Contains(err.Error(), "NOT NULL constraint failed")
}

// extendedCode extracts the extended result code from the error chain.
// mattn/go-sqlite3 errors carry no Code method and fall back to message matching.
func extendedCode(err error) (int, bool) {
	if e, ok := asError[errorCoder](err); ok {
		return e.Code(), true
	}
	return 0, false
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
