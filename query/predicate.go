package query

import (
	"fmt"

	storm "github.com/storm-repo/storm-go"
)

// Op is a comparison operator of a leaf predicate.
type Op string

// Comparison operators.
const (
	OpEQ      Op = "="
	OpNEQ     Op = "<>"
	OpGT      Op = ">"
	OpGTE     Op = ">="
	OpLT      Op = "<"
	OpLTE     Op = "<="
	OpLike    Op = "LIKE"
	OpIn      Op = "IN"
	OpNotIn   Op = "NOT IN"
	OpBetween Op = "BETWEEN"
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

// Predicate is a node of an immutable condition tree. Combinators return
// new nodes and never mutate their operands, so subtrees can be shared
// across builders.
type Predicate interface {
	// And returns a conjunction of this predicate and p.
	And(p Predicate) Predicate
	// Or returns a disjunction of this predicate and p.
	Or(p Predicate) Predicate

	isPredicate()
}

// Comparison is a single path-operator-values leaf.
type Comparison struct {
	Path   string
	Op     Op
	Values []any

	err error
}

func (*Comparison) isPredicate() {}

// And implements Predicate.
func (c *Comparison) And(p Predicate) Predicate { return And(c, p) }

// Or implements Predicate.
func (c *Comparison) Or(p Predicate) Predicate { return Or(c, p) }

// Raw is a verbatim SQL fragment with positional arguments. Fragment text
// is not inspected; the caller is responsible for qualifying columns.
type Raw struct {
	SQL  string
	Args []any
}

func (*Raw) isPredicate() {}

// And implements Predicate.
func (r *Raw) And(p Predicate) Predicate { return And(r, p) }

// Or implements Predicate.
func (r *Raw) Or(p Predicate) Predicate { return Or(r, p) }

// ExistsPredicate wraps a subquery in EXISTS or NOT EXISTS.
type ExistsPredicate struct {
	Sub     *Selector
	Negated bool
}

func (*ExistsPredicate) isPredicate() {}

// And implements Predicate.
func (e *ExistsPredicate) And(p Predicate) Predicate { return And(e, p) }

// Or implements Predicate.
func (e *ExistsPredicate) Or(p Predicate) Predicate { return Or(e, p) }

// Composite joins child predicates with AND or OR. Children render
// left to right; a child combined with the opposite connective is
// parenthesized.
type Composite struct {
	or       bool
	Children []Predicate
}

func (*Composite) isPredicate() {}

// IsOr reports whether the connective is OR rather than AND.
func (c *Composite) IsOr() bool { return c.or }

// And implements Predicate.
func (c *Composite) And(p Predicate) Predicate { return And(c, p) }

// Or implements Predicate.
func (c *Composite) Or(p Predicate) Predicate { return Or(c, p) }

// compare builds a validated comparison leaf. Arity violations are
// recorded on the node and surface at Build.
func compare(path string, op Op, values ...any) Predicate {
	c := &Comparison{Path: path, Op: op, Values: values}
	switch op {
	case OpIsNull, OpNotNull:
		if len(values) != 0 {
			c.err = storm.NewPredicateError(string(op), path, len(values), fmt.Sprintf("%s takes no operand", op))
		}
	case OpBetween:
		if len(values) != 2 {
			c.err = storm.NewPredicateError(string(op), path, len(values), "BETWEEN takes exactly two operands")
		}
	case OpIn, OpNotIn:
		// Empty lists are valid and compile to constant truth values.
	default:
		if len(values) != 1 {
			c.err = storm.NewPredicateError(string(op), path, len(values), fmt.Sprintf("%s takes exactly one operand", op))
		}
	}
	return c
}

// EQ compares a path for equality.
func EQ(path string, v any) Predicate { return compare(path, OpEQ, v) }

// NEQ compares a path for inequality.
func NEQ(path string, v any) Predicate { return compare(path, OpNEQ, v) }

// GT compares a path with strictly-greater-than.
func GT(path string, v any) Predicate { return compare(path, OpGT, v) }

// GTE compares a path with greater-or-equal.
func GTE(path string, v any) Predicate { return compare(path, OpGTE, v) }

// LT compares a path with strictly-less-than.
func LT(path string, v any) Predicate { return compare(path, OpLT, v) }

// LTE compares a path with less-or-equal.
func LTE(path string, v any) Predicate { return compare(path, OpLTE, v) }

// Like matches a path against a SQL LIKE pattern.
func Like(path, pattern string) Predicate { return compare(path, OpLike, pattern) }

// In tests membership in a value list. An empty list compiles to a
// constant FALSE.
func In(path string, values ...any) Predicate { return compare(path, OpIn, values...) }

// NotIn tests non-membership in a value list. An empty list compiles to
// a constant TRUE.
func NotIn(path string, values ...any) Predicate { return compare(path, OpNotIn, values...) }

// Between tests inclusion in an inclusive range.
func Between(path string, lo, hi any) Predicate { return compare(path, OpBetween, lo, hi) }

// IsNull tests a path for SQL NULL.
func IsNull(path string) Predicate { return compare(path, OpIsNull) }

// NotNull tests a path for non-NULL.
func NotNull(path string) Predicate { return compare(path, OpNotNull) }

// RawP builds a verbatim predicate fragment with positional arguments.
func RawP(sql string, args ...any) Predicate { return &Raw{SQL: sql, Args: args} }

// Exists wraps a subquery selector in an EXISTS predicate.
func Exists(sub *Selector) Predicate { return &ExistsPredicate{Sub: sub} }

// NotExists wraps a subquery selector in a NOT EXISTS predicate.
func NotExists(sub *Selector) Predicate { return &ExistsPredicate{Sub: sub, Negated: true} }

// And joins predicates with AND, skipping nils. Returns nil when no
// operands remain.
func And(ps ...Predicate) Predicate { return compose(false, ps) }

// Or joins predicates with OR, skipping nils.
func Or(ps ...Predicate) Predicate { return compose(true, ps) }

func compose(or bool, ps []Predicate) Predicate {
	children := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		// Merge nested composites with the same connective.
		if c, ok := p.(*Composite); ok && c.or == or {
			children = append(children, c.Children...)
			continue
		}
		children = append(children, p)
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return &Composite{or: or, Children: children}
}
