package query

import (
	"time"

	"github.com/google/uuid"
)

// Typed path wrappers emitted by the metamodel generator. Each wraps a
// dotted path expression and exposes only the comparisons valid for its
// field type, so an ill-typed comparison fails to compile instead of
// failing at Build.

// Numeric constrains number-valued paths.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// NumberPath is a path to a numeric column.
type NumberPath[T Numeric] string

// Ref returns the dotted path expression.
func (p NumberPath[T]) Ref() string { return string(p) }

// EQ compares for equality.
func (p NumberPath[T]) EQ(v T) Predicate { return EQ(string(p), v) }

// NEQ compares for inequality.
func (p NumberPath[T]) NEQ(v T) Predicate { return NEQ(string(p), v) }

// GT compares with strictly-greater-than.
func (p NumberPath[T]) GT(v T) Predicate { return GT(string(p), v) }

// GTE compares with greater-or-equal.
func (p NumberPath[T]) GTE(v T) Predicate { return GTE(string(p), v) }

// LT compares with strictly-less-than.
func (p NumberPath[T]) LT(v T) Predicate { return LT(string(p), v) }

// LTE compares with less-or-equal.
func (p NumberPath[T]) LTE(v T) Predicate { return LTE(string(p), v) }

// In tests membership in a value list.
func (p NumberPath[T]) In(vs ...T) Predicate { return In(string(p), anySlice(vs)...) }

// NotIn tests non-membership in a value list.
func (p NumberPath[T]) NotIn(vs ...T) Predicate { return NotIn(string(p), anySlice(vs)...) }

// Between tests inclusion in an inclusive range.
func (p NumberPath[T]) Between(lo, hi T) Predicate { return Between(string(p), lo, hi) }

// IsNull tests for SQL NULL.
func (p NumberPath[T]) IsNull() Predicate { return IsNull(string(p)) }

// NotNull tests for non-NULL.
func (p NumberPath[T]) NotNull() Predicate { return NotNull(string(p)) }

// StringPath is a path to a text column.
type StringPath string

// Ref returns the dotted path expression.
func (p StringPath) Ref() string { return string(p) }

// EQ compares for equality.
func (p StringPath) EQ(v string) Predicate { return EQ(string(p), v) }

// NEQ compares for inequality.
func (p StringPath) NEQ(v string) Predicate { return NEQ(string(p), v) }

// GT compares with strictly-greater-than.
func (p StringPath) GT(v string) Predicate { return GT(string(p), v) }

// GTE compares with greater-or-equal.
func (p StringPath) GTE(v string) Predicate { return GTE(string(p), v) }

// LT compares with strictly-less-than.
func (p StringPath) LT(v string) Predicate { return LT(string(p), v) }

// LTE compares with less-or-equal.
func (p StringPath) LTE(v string) Predicate { return LTE(string(p), v) }

// Like matches against a SQL LIKE pattern.
func (p StringPath) Like(pattern string) Predicate { return Like(string(p), pattern) }

// In tests membership in a value list.
func (p StringPath) In(vs ...string) Predicate { return In(string(p), anySlice(vs)...) }

// NotIn tests non-membership in a value list.
func (p StringPath) NotIn(vs ...string) Predicate { return NotIn(string(p), anySlice(vs)...) }

// IsNull tests for SQL NULL.
func (p StringPath) IsNull() Predicate { return IsNull(string(p)) }

// NotNull tests for non-NULL.
func (p StringPath) NotNull() Predicate { return NotNull(string(p)) }

// BoolPath is a path to a boolean column.
type BoolPath string

// Ref returns the dotted path expression.
func (p BoolPath) Ref() string { return string(p) }

// EQ compares for equality.
func (p BoolPath) EQ(v bool) Predicate { return EQ(string(p), v) }

// NEQ compares for inequality.
func (p BoolPath) NEQ(v bool) Predicate { return NEQ(string(p), v) }

// IsNull tests for SQL NULL.
func (p BoolPath) IsNull() Predicate { return IsNull(string(p)) }

// NotNull tests for non-NULL.
func (p BoolPath) NotNull() Predicate { return NotNull(string(p)) }

// TimePath is a path to a timestamp column.
type TimePath string

// Ref returns the dotted path expression.
func (p TimePath) Ref() string { return string(p) }

// EQ compares for equality.
func (p TimePath) EQ(v time.Time) Predicate { return EQ(string(p), v) }

// NEQ compares for inequality.
func (p TimePath) NEQ(v time.Time) Predicate { return NEQ(string(p), v) }

// GT compares with strictly-after.
func (p TimePath) GT(v time.Time) Predicate { return GT(string(p), v) }

// GTE compares with at-or-after.
func (p TimePath) GTE(v time.Time) Predicate { return GTE(string(p), v) }

// LT compares with strictly-before.
func (p TimePath) LT(v time.Time) Predicate { return LT(string(p), v) }

// LTE compares with at-or-before.
func (p TimePath) LTE(v time.Time) Predicate { return LTE(string(p), v) }

// Between tests inclusion in an inclusive range.
func (p TimePath) Between(lo, hi time.Time) Predicate { return Between(string(p), lo, hi) }

// In tests membership in a value list.
func (p TimePath) In(vs ...time.Time) Predicate { return In(string(p), anySlice(vs)...) }

// IsNull tests for SQL NULL.
func (p TimePath) IsNull() Predicate { return IsNull(string(p)) }

// NotNull tests for non-NULL.
func (p TimePath) NotNull() Predicate { return NotNull(string(p)) }

// UUIDPath is a path to a UUID column.
type UUIDPath string

// Ref returns the dotted path expression.
func (p UUIDPath) Ref() string { return string(p) }

// EQ compares for equality.
func (p UUIDPath) EQ(v uuid.UUID) Predicate { return EQ(string(p), v) }

// NEQ compares for inequality.
func (p UUIDPath) NEQ(v uuid.UUID) Predicate { return NEQ(string(p), v) }

// In tests membership in a value list.
func (p UUIDPath) In(vs ...uuid.UUID) Predicate { return In(string(p), anySlice(vs)...) }

// NotIn tests non-membership in a value list.
func (p UUIDPath) NotIn(vs ...uuid.UUID) Predicate { return NotIn(string(p), anySlice(vs)...) }

// IsNull tests for SQL NULL.
func (p UUIDPath) IsNull() Predicate { return IsNull(string(p)) }

// NotNull tests for non-NULL.
func (p UUIDPath) NotNull() Predicate { return NotNull(string(p)) }

// BytesPath is a path to a binary column.
type BytesPath string

// Ref returns the dotted path expression.
func (p BytesPath) Ref() string { return string(p) }

// EQ compares for equality.
func (p BytesPath) EQ(v []byte) Predicate { return EQ(string(p), v) }

// NEQ compares for inequality.
func (p BytesPath) NEQ(v []byte) Predicate { return NEQ(string(p), v) }

// IsNull tests for SQL NULL.
func (p BytesPath) IsNull() Predicate { return IsNull(string(p)) }

// NotNull tests for non-NULL.
func (p BytesPath) NotNull() Predicate { return NotNull(string(p)) }

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
