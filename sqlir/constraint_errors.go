package sqlir

import (
	"errors"
	"strings"

	"github.com/exocore-dev/exocore"
)

// IsConstraintError returns true if err resulted from a database
// constraint violation of any kind.
func IsConstraintError(err error) bool {
	var e exocore.ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// errorCoder is implemented by driver errors that expose their SQLSTATE
// code through a Code() string method.
type errorCoder interface {
	Code() string
}

// sqlStateError is implemented by drivers that expose a SQLSTATE code
// directly, such as github.com/lib/pq's *pq.Error.
type sqlStateError interface {
	SQLState() string
}

// Postgres SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueConstraintError reports whether err is a unique-index
// violation (spec §7 "ConstraintViolation" kind).
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgUniqueViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgUniqueViolation {
		return true
	}
	return containsAny(err.Error(), "violates unique constraint")
}

// IsForeignKeyConstraintError reports whether err is a foreign-key
// violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgForeignKeyViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgForeignKeyViolation {
		return true
	}
	return containsAny(err.Error(), "violates foreign key constraint")
}

// IsCheckConstraintError reports whether err is a CHECK constraint
// violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgCheckViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgCheckViolation {
		return true
	}
	return containsAny(err.Error(), "violates check constraint")
}

// asError walks err's Unwrap chain for the first value implementing T.
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

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
