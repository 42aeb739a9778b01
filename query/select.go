package query

import (
	"context"

	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/schema"
)

// Selector accumulates the state of a SELECT statement. It is a
// persistent value: every fluent call returns a new Selector sharing
// unmodified substructure, and a Selector that has produced a statement
// is terminal.
type Selector struct {
	def        *schema.Definition
	projection *schema.Definition
	paths      []string
	rawColumns []string
	distinct   bool
	joins      []joinSpec
	where      Predicate
	groupBy    []string
	having     Predicate
	orderBy    []orderTerm
	limit      int
	offset     int
	lock       lockMode
	lockClause string
	built      bool
	err        error
}

// Select starts a SELECT builder for the given entity or projection.
func Select(def *schema.Definition) *Selector {
	return &Selector{def: def, limit: -1, offset: -1}
}

func (s *Selector) clone() *Selector {
	if s.built {
		c := *s
		c.built = false
		if c.err == nil {
			c.err = errBuilt(s.def, "select")
		}
		return &c
	}
	c := *s
	c.paths = copySlice(s.paths)
	c.rawColumns = copySlice(s.rawColumns)
	c.joins = copySlice(s.joins)
	c.groupBy = copySlice(s.groupBy)
	c.orderBy = copySlice(s.orderBy)
	return &c
}

// Project sets the result type to a projection definition. Its fields
// are resolved as paths against the root entity.
func (s *Selector) Project(def *schema.Definition) *Selector {
	c := s.clone()
	c.projection = def
	return c
}

// Fields restricts the select list to the given paths.
func (s *Selector) Fields(paths ...string) *Selector {
	c := s.clone()
	c.paths = append(c.paths, paths...)
	return c
}

// Columns appends verbatim select-list expressions, e.g. "COUNT(*)".
func (s *Selector) Columns(exprs ...string) *Selector {
	c := s.clone()
	c.rawColumns = append(c.rawColumns, exprs...)
	return c
}

// Distinct marks the statement SELECT DISTINCT.
func (s *Selector) Distinct() *Selector {
	c := s.clone()
	c.distinct = true
	return c
}

// Join declares an explicit join against another entity. The alias must
// be unique within the statement; on may be nil when a single foreign
// key relates the two entities, in which case the ON condition is
// derived from it.
func (s *Selector) Join(kind JoinKind, def *schema.Definition, alias string, on Predicate) *Selector {
	c := s.clone()
	c.joins = append(c.joins, joinSpec{kind: kind, target: def, alias: alias, on: on})
	return c
}

// InnerJoin declares an INNER JOIN whose ON condition derives from the
// foreign key relating the two entities. The alias is the foreign-key
// field name.
func (s *Selector) InnerJoin(def *schema.Definition) *Selector {
	return s.Join(JoinInner, def, "", nil)
}

// LeftJoin declares a LEFT JOIN with a foreign-key derived ON condition.
func (s *Selector) LeftJoin(def *schema.Definition) *Selector {
	return s.Join(JoinLeft, def, "", nil)
}

// RightJoin declares a RIGHT JOIN with a foreign-key derived ON
// condition.
func (s *Selector) RightJoin(def *schema.Definition) *Selector {
	return s.Join(JoinRight, def, "", nil)
}

// CrossJoin declares a CROSS JOIN; it carries no ON condition.
func (s *Selector) CrossJoin(def *schema.Definition, alias string) *Selector {
	return s.Join(JoinCross, def, alias, nil)
}

// JoinRaw declares a join with a verbatim ON fragment.
func (s *Selector) JoinRaw(kind JoinKind, def *schema.Definition, alias, on string) *Selector {
	c := s.clone()
	c.joins = append(c.joins, joinSpec{kind: kind, target: def, alias: alias, onRaw: on})
	return c
}

// JoinSelect declares a join against a subquery under the given alias.
func (s *Selector) JoinSelect(kind JoinKind, sub *Selector, alias string, on Predicate) *Selector {
	c := s.clone()
	c.joins = append(c.joins, joinSpec{kind: kind, sub: sub, alias: alias, on: on})
	return c
}

// Where adds a predicate, AND-combined with any existing one.
func (s *Selector) Where(p Predicate) *Selector {
	c := s.clone()
	c.where = And(c.where, p)
	return c
}

// WhereKey filters by primary key. Compound keys take the parts in
// declaration order.
func (s *Selector) WhereKey(values ...any) *Selector {
	return s.Where(WhereKey(values...))
}

// WhereKeyIn filters by a set of primary keys.
func (s *Selector) WhereKeyIn(keys ...any) *Selector {
	return s.Where(WhereKeyIn(keys...))
}

// WhereRef filters a foreign-key field by related primary keys.
func (s *Selector) WhereRef(path string, keys ...any) *Selector {
	return s.Where(WhereRef(path, keys...))
}

// GroupBy appends grouping paths.
func (s *Selector) GroupBy(paths ...string) *Selector {
	c := s.clone()
	c.groupBy = append(c.groupBy, paths...)
	return c
}

// Having sets the HAVING predicate, AND-combined with any existing one.
func (s *Selector) Having(p Predicate) *Selector {
	c := s.clone()
	c.having = And(c.having, p)
	return c
}

// OrderBy appends ascending order terms.
func (s *Selector) OrderBy(paths ...string) *Selector {
	c := s.clone()
	for _, p := range paths {
		c.orderBy = append(c.orderBy, orderTerm{expr: p})
	}
	return c
}

// OrderByDesc appends a descending order term.
func (s *Selector) OrderByDesc(path string) *Selector {
	c := s.clone()
	c.orderBy = append(c.orderBy, orderTerm{expr: path, desc: true})
	return c
}

// OrderByRaw appends a verbatim order term.
func (s *Selector) OrderByRaw(expr string) *Selector {
	c := s.clone()
	c.orderBy = append(c.orderBy, orderTerm{expr: expr, raw: true})
	return c
}

// Limit caps the number of returned rows.
func (s *Selector) Limit(n int) *Selector {
	c := s.clone()
	c.limit = n
	return c
}

// Offset skips the first n rows.
func (s *Selector) Offset(n int) *Selector {
	c := s.clone()
	c.offset = n
	return c
}

// ForShare requests a shared row lock.
func (s *Selector) ForShare() *Selector {
	c := s.clone()
	c.lock = lockShare
	return c
}

// ForUpdate requests an exclusive row lock.
func (s *Selector) ForUpdate() *Selector {
	c := s.clone()
	c.lock = lockUpdate
	return c
}

// ForLock requests a verbatim lock clause appended to the statement.
func (s *Selector) ForLock(clause string) *Selector {
	c := s.clone()
	c.lock = lockCustom
	c.lockClause = clause
	return c
}

// Count replaces the select list with COUNT(*).
func (s *Selector) Count() *Selector {
	c := s.clone()
	c.paths = nil
	c.rawColumns = []string{"COUNT(*)"}
	return c
}

// Exists reduces the statement to an existence probe: SELECT 1 capped
// at one row.
func (s *Selector) Exists() *Selector {
	c := s.clone()
	c.paths = nil
	c.rawColumns = []string{"1"}
	c.limit = 1
	return c
}

// Build compiles the accumulated state into a statement for the given
// dialect. Build is pure: the same state and dialect always produce
// byte-identical SQL and identical parameter order. The selector becomes
// terminal; further fluent calls on it fail at their own Build.
func (s *Selector) Build(d dialect.Strategy) (*Statement, error) {
	if s.err != nil {
		return nil, s.err
	}
	m, err := modelOf(s.def)
	if err != nil {
		return nil, err
	}
	s.built = true
	c := newCompiler(d)
	if err := c.renderSelect(s, m, false); err != nil {
		return nil, err
	}
	return c.statement(m.Name, "select"), nil
}

// BuildCached compiles via the statement cache. Only fully
// parameterized statements, whose every value is a named bind variable,
// are cached; anything else falls through to Build.
func (s *Selector) BuildCached(ctx context.Context, sc *StatementCache, d dialect.Strategy) (*Statement, error) {
	if sc == nil {
		return s.Build(d)
	}
	return sc.selectStatement(ctx, s, d)
}
