package query

import (
	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/model"
	"github.com/storm-repo/storm-go/schema"
)

// JoinKind selects the SQL join type of an explicit join.
type JoinKind string

// Join kinds.
const (
	JoinInner JoinKind = "INNER JOIN"
	JoinLeft  JoinKind = "LEFT JOIN"
	JoinRight JoinKind = "RIGHT JOIN"
	JoinCross JoinKind = "CROSS JOIN"
)

type lockMode uint8

const (
	lockNone lockMode = iota
	lockShare
	lockUpdate
	lockCustom
)

type orderTerm struct {
	expr string
	desc bool
	raw  bool
}

// joinSpec is one explicitly declared join. Exactly one of target and sub
// is set.
type joinSpec struct {
	kind   JoinKind
	target *schema.Definition
	sub    *Selector
	alias  string
	on     Predicate
	onRaw  string
}

// keyPredicate matches the primary key against one value tuple. It is
// decomposed into per-column comparisons at compile time, so it works for
// compound keys.
type keyPredicate struct {
	values []any
}

func (*keyPredicate) isPredicate() {}

// And implements Predicate.
func (k *keyPredicate) And(p Predicate) Predicate { return And(k, p) }

// Or implements Predicate.
func (k *keyPredicate) Or(p Predicate) Predicate { return Or(k, p) }

// keyInPredicate matches the primary key against a set of value tuples.
// Rendered as a multi-value IN when the dialect supports tuples, and as
// an OR of per-column conjunctions otherwise.
type keyInPredicate struct {
	rows [][]any
}

func (*keyInPredicate) isPredicate() {}

// And implements Predicate.
func (k *keyInPredicate) And(p Predicate) Predicate { return And(k, p) }

// Or implements Predicate.
func (k *keyInPredicate) Or(p Predicate) Predicate { return Or(k, p) }

// refPredicate matches a foreign-key reference against the primary keys
// of one or more related records.
type refPredicate struct {
	path string
	rows [][]any
}

func (*refPredicate) isPredicate() {}

// And implements Predicate.
func (r *refPredicate) And(p Predicate) Predicate { return And(r, p) }

// Or implements Predicate.
func (r *refPredicate) Or(p Predicate) Predicate { return Or(r, p) }

// WhereKey builds a predicate matching the entity's primary key. For
// compound keys pass the key parts in declaration order, or a single
// []any tuple.
func WhereKey(values ...any) Predicate {
	return &keyPredicate{values: flattenTuple(values)}
}

// WhereKeyIn builds a predicate matching the primary key against many
// key tuples. Single-column keys take bare values; compound keys take
// []any tuples.
func WhereKeyIn(keys ...any) Predicate {
	rows := make([][]any, len(keys))
	for i, k := range keys {
		if tuple, ok := k.([]any); ok {
			rows[i] = tuple
		} else {
			rows[i] = []any{k}
		}
	}
	return &keyInPredicate{rows: rows}
}

// WhereRef builds a predicate matching a foreign-key field against the
// primary keys of related records. The path names the reference field
// (e.g. "owner"); each value is a related key, with []any tuples for
// compound keys.
func WhereRef(path string, keys ...any) Predicate {
	rows := make([][]any, len(keys))
	for i, k := range keys {
		if tuple, ok := k.([]any); ok {
			rows[i] = tuple
		} else {
			rows[i] = []any{k}
		}
	}
	return &refPredicate{path: path, rows: rows}
}

func flattenTuple(values []any) []any {
	if len(values) == 1 {
		if tuple, ok := values[0].([]any); ok {
			return tuple
		}
	}
	return values
}

// errBuilt is the failure recorded when a fluent call derives from a
// builder that already produced a statement.
func errBuilt(def *schema.Definition, op string) error {
	name := ""
	if def != nil {
		name = def.Name()
	}
	return storm.NewQueryError(name, op, "builder is terminal after build")
}

// modelOf resolves the entity graph model for a definition, folding the
// error into builder state.
func modelOf(def *schema.Definition) (*model.Model, error) {
	if def == nil {
		return nil, storm.NewQueryError("", "build", "nil entity definition")
	}
	return model.Of(def)
}

func copySlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
