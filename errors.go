package storm

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors. Typed errors below anchor to these via Is, so
// callers can match either the concrete type or the sentinel.
var (
	// ErrMissingPrimaryKey is returned when an operation requires a primary
	// key but the entity model does not declare one.
	ErrMissingPrimaryKey = errors.New("storm: missing primary key")

	// ErrAmbiguousPath is returned when a metamodel path matches more than
	// one position in the entity graph.
	ErrAmbiguousPath = errors.New("storm: ambiguous path")

	// ErrPathNotFound is returned when a metamodel path matches no position
	// in the entity graph.
	ErrPathNotFound = errors.New("storm: path not found")

	// ErrMissingWhereClause is returned when an UPDATE or DELETE is built
	// without a WHERE predicate and without an explicit Safe call.
	ErrMissingWhereClause = errors.New("storm: missing where clause on mutating statement")

	// ErrStaleVersion is reported by the execution boundary when a
	// version-aware statement affected zero rows.
	ErrStaleVersion = errors.New("storm: stale version")

	// ErrNotFound is reported by the execution boundary when a requested
	// row does not exist.
	ErrNotFound = errors.New("storm: record not found")
)

// ModelError represents a malformed or incomplete entity graph model.
type ModelError struct {
	Type    string // Entity type name
	Field   string // Field name (if applicable)
	Message string
	Cause   error
}

// Error returns the error string.
func (e *ModelError) Error() string {
	var b strings.Builder
	b.WriteString("storm: model error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// NewModelError creates a new ModelError.
func NewModelError(typeName, field, message string) *ModelError {
	return &ModelError{Type: typeName, Field: field, Message: message}
}

// NewMissingPrimaryKeyError creates a ModelError anchored to ErrMissingPrimaryKey.
func NewMissingPrimaryKeyError(typeName string) *ModelError {
	return &ModelError{Type: typeName, Message: "no field is marked as primary key", Cause: ErrMissingPrimaryKey}
}

// IsModelError reports whether the error is a ModelError.
func IsModelError(err error) bool {
	if err == nil {
		return false
	}
	var e *ModelError
	return errors.As(err, &e)
}

// PathError represents an unresolved or ambiguous metamodel path.
type PathError struct {
	Type       string   // Root entity type name
	Path       string   // The attempted path expression
	Candidates []string // Structurally distinct matches, for ambiguous paths
	Cause      error    // ErrPathNotFound or ErrAmbiguousPath
}

// Error returns the error string.
func (e *PathError) Error() string {
	switch {
	case errors.Is(e.Cause, ErrAmbiguousPath):
		return fmt.Sprintf("storm: path %q is ambiguous on %s (candidates: %s)",
			e.Path, e.Type, strings.Join(e.Candidates, ", "))
	case len(e.Candidates) > 0:
		return fmt.Sprintf("storm: path %q not found on %s (did you mean: %s)",
			e.Path, e.Type, strings.Join(e.Candidates, ", "))
	default:
		return fmt.Sprintf("storm: path %q not found on %s", e.Path, e.Type)
	}
}

// Unwrap returns the underlying sentinel.
func (e *PathError) Unwrap() error {
	return e.Cause
}

// NewPathNotFoundError creates a PathError anchored to ErrPathNotFound.
func NewPathNotFoundError(typeName, path string) *PathError {
	return &PathError{Type: typeName, Path: path, Cause: ErrPathNotFound}
}

// NewAmbiguousPathError creates a PathError anchored to ErrAmbiguousPath.
// Candidates hold the structurally distinct paths that matched.
func NewAmbiguousPathError(typeName, path string, candidates []string) *PathError {
	return &PathError{Type: typeName, Path: path, Candidates: candidates, Cause: ErrAmbiguousPath}
}

// IsPathError reports whether the error is a PathError.
func IsPathError(err error) bool {
	if err == nil {
		return false
	}
	var e *PathError
	return errors.As(err, &e)
}

// PredicateError represents an arity mismatch between an operator and the
// supplied value count.
type PredicateError struct {
	Op      string // Operator name
	Path    string // Target path, if known
	Got     int    // Number of values supplied
	Message string
}

// Error returns the error string.
func (e *PredicateError) Error() string {
	var b strings.Builder
	b.WriteString("storm: predicate error")
	if e.Op != "" {
		fmt.Fprintf(&b, " for operator %s", e.Op)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " on %q", e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else {
		fmt.Fprintf(&b, ": got %d values", e.Got)
	}
	return b.String()
}

// NewPredicateError creates a new PredicateError.
func NewPredicateError(op, path string, got int, message string) *PredicateError {
	return &PredicateError{Op: op, Path: path, Got: got, Message: message}
}

// IsPredicateError reports whether the error is a PredicateError.
func IsPredicateError(err error) bool {
	if err == nil {
		return false
	}
	var e *PredicateError
	return errors.As(err, &e)
}

// QueryError represents a structural build-time violation in a query builder:
// duplicate join alias, missing WHERE clause on an unsafe mutation, an
// unsupported lock mode, or mutation of an already-built builder.
type QueryError struct {
	Entity  string // Entity type being queried
	Op      string // Operation ("select", "insert", "update", "delete")
	Message string
	Cause   error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString("storm: query error")
	if e.Entity != "" {
		b.WriteString(" on ")
		b.WriteString(e.Entity)
	}
	if e.Op != "" {
		fmt.Fprintf(&b, " (%s)", e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(entity, op, message string) *QueryError {
	return &QueryError{Entity: entity, Op: op, Message: message}
}

// NewMissingWhereClauseError creates a QueryError anchored to ErrMissingWhereClause.
func NewMissingWhereClauseError(entity, op string) *QueryError {
	return &QueryError{Entity: entity, Op: op, Cause: ErrMissingWhereClause}
}

// IsQueryError reports whether the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// DialectError represents a rendering the active dialect cannot satisfy,
// such as a lock hint it has no syntax for.
type DialectError struct {
	Dialect string // Dialect name
	Feature string // Requested feature
	Message string
}

// Error returns the error string.
func (e *DialectError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("storm: dialect %s cannot render %s: %s", e.Dialect, e.Feature, e.Message)
	}
	return fmt.Sprintf("storm: dialect %s cannot render %s", e.Dialect, e.Feature)
}

// NewDialectError creates a new DialectError.
func NewDialectError(dialect, feature, message string) *DialectError {
	return &DialectError{Dialect: dialect, Feature: feature, Message: message}
}

// IsDialectError reports whether the error is a DialectError.
func IsDialectError(err error) bool {
	if err == nil {
		return false
	}
	var e *DialectError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation reported by the
// execution boundary, translated from the underlying driver error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("storm: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying driver error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError reports whether the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}
