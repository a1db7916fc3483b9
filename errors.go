package exocore

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way spec §7 enumerates them. The resolver
// uses Kind (via KindOf) to decide whether a message is user-visible and,
// if so, what GraphQL error shape to produce.
type Kind uint8

const (
	KindInternal Kind = iota
	KindParse
	KindType
	KindValidation
	KindAuthorization
	KindInputRange
	KindFieldMerge
	KindSQL
	KindUserRuntime
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("exocore: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one
	// result returns zero or multiple results.
	ErrNotSingular = errors.New("exocore: entity not singular")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction (spec §4.4 state machine only opens
	// one transaction per request).
	ErrTxStarted = errors.New("exocore: cannot start a transaction within a transaction")
)

// Span identifies a source location for a CompileError.
type Span struct {
	File      string
	Line, Col int
	EndLine   int
	EndCol    int
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Col)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// CompileError is a single structured diagnostic produced by the model
// compiler (spec §4.1): "Errors are structured {span, kind, message, hint?}."
type CompileError struct {
	Span    Span
	Kind    Kind
	Message string
	Hint    string
}

func (e *CompileError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Span, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// CompileErrors aggregates every independent diagnostic a compiler phase
// could prove, per spec §4.1 ("reports as many errors as can be proved
// independent before aborting").
type CompileErrors []*CompileError

func (es CompileErrors) Error() string {
	switch len(es) {
	case 0:
		return "exocore: no compile errors"
	case 1:
		return es[0].Error()
	}
	msg := fmt.Sprintf("exocore: %d compile errors:", len(es))
	for _, e := range es {
		msg += "\n  " + e.Error()
	}
	return msg
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any
}

func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("exocore: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("exocore: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

func (e *NotFoundError) Label() string { return e.label }
func (e *NotFoundError) ID() any       { return e.id }

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConstraintError represents a database constraint violation error,
// classified via sqlir.Is*ConstraintError before wrapping (spec §4.6 item 6
// and §8 "duplicate primary keys in bulk create raise a constraint
// violation that rolls back the entire batch").
type ConstraintError struct {
	msg  string
	wrap error
}

func (e ConstraintError) Error() string { return fmt.Sprintf("exocore: constraint failed: %s", e.msg) }
func (e ConstraintError) Unwrap() error { return e.wrap }

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError represents a field-level input-validation error (spec
// §4.1 "@range, @maxLength, @precision, @scale ... runtime mutations
// reject out-of-range values before issuing SQL").
type ValidationError struct {
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("exocore: validator failed for field %q: %s", e.Name, e.Err)
}
func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AuthorizationError is returned when an access-control decision at
// operation level is Never, or a Never field is explicitly selected. Its
// public message is the fixed string "Not authorized" per spec §4.2/§7.
type AuthorizationError struct {
	Operation string
	Field     string
}

func (e *AuthorizationError) Error() string { return "Not authorized" }

// IsAuthorizationError reports whether err is an AuthorizationError.
func IsAuthorizationError(err error) bool {
	if err == nil {
		return false
	}
	var e *AuthorizationError
	return errors.As(err, &e)
}

// FieldMergeError is raised when two selections of the same field carry
// different arguments and no alias disambiguates them (spec §4.4, §8
// scenario 4).
type FieldMergeError struct {
	Field      string
	FirstSpan  Span
	SecondSpan Span
}

func (e *FieldMergeError) Error() string {
	return fmt.Sprintf("field %q selected twice with different arguments at %s and %s",
		e.Field, e.FirstSpan, e.SecondSpan)
}

// SQLError wraps a driver/database error. Its public message is always the
// generic "Operation failed" (spec §4.4/§7); Cause is logged, not returned.
type SQLError struct {
	Cause error
	Query string
}

func (e *SQLError) Error() string { return "Operation failed" }
func (e *SQLError) Unwrap() error { return e.Cause }

// NewSQLError wraps a driver error as a user-facing SQLError.
func NewSQLError(query string, cause error) error {
	return &SQLError{Query: query, Cause: cause}
}

// UserRuntimeError carries a message thrown by a user interceptor or
// resolver via ExographError(msg); it propagates verbatim (spec §4.4/§7).
type UserRuntimeError struct {
	Message string
}

func (e *UserRuntimeError) Error() string { return e.Message }

// ExographError constructs the sentinel user-runtime error type a JS/WASM
// interceptor throws to surface a message verbatim to the client.
func ExographError(msg string) error { return &UserRuntimeError{Message: msg} }

// InternalError is the catch-all mapped to "Internal server error" at the
// boundary; Cause is logged, never returned to the client.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string { return "Internal server error" }
func (e *InternalError) Unwrap() error { return e.Cause }

// AggregateError represents multiple errors collected independently during
// one phase (spec §4.1 "reports as many errors as can be proved independent").
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "exocore: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "exocore: multiple errors:"
	for i, err := range e.Errors {
		msg += fmt.Sprintf("\n  [%d] %v", i+1, err)
	}
	return msg
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil. A single error is returned unwrapped.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return &AggregateError{Errors: filtered}
	}
}

// KindOf classifies err into the spec §7 taxonomy for the resolver's
// error-to-GraphQL-response mapping.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errorsAs[*CompileError](err), errorsAs[CompileErrors](err):
		return KindParse
	case errorsAs[*ValidationError](err):
		return KindInputRange
	case errorsAs[*AuthorizationError](err):
		return KindAuthorization
	case errorsAs[*FieldMergeError](err):
		return KindFieldMerge
	case errorsAs[*SQLError](err):
		return KindSQL
	case errorsAs[*UserRuntimeError](err):
		return KindUserRuntime
	default:
		return KindInternal
	}
}

func errorsAs[T error](err error) bool {
	var t T
	return errors.As(err, &t)
}
