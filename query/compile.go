package query

import (
	"fmt"
	"strings"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/model"
)

// compiler accumulates statement text and the ordered parameter list.
// One compiler spans the whole statement including subqueries, so
// placeholder numbering stays contiguous across nesting levels.
type compiler struct {
	d    dialect.Strategy
	sb   strings.Builder
	args []Arg
}

func newCompiler(d dialect.Strategy) *compiler { return &compiler{d: d} }

func (c *compiler) write(s string) { c.sb.WriteString(s) }

// param appends a bound value and returns its positional placeholder.
func (c *compiler) param(v any, convert func(any) any) string {
	c.args = append(c.args, Arg{Value: v, Convert: convert})
	return c.d.Placeholder(len(c.args))
}

func (c *compiler) statement(entity, op string) *Statement {
	return &Statement{SQL: c.sb.String(), Entity: entity, Operation: op, Args: c.args}
}

// scope is the per-statement rendering context: the root model, the path
// resolver and the resolved-path memo. SELECT statements additionally
// carry join bookkeeping; mutations run with an explicit-only resolver
// and no joins.
type scope struct {
	c         *compiler
	m         *model.Model
	resolver  *model.Resolver
	resolved  map[string]*model.ResolvedPath
	hasJoins  bool
	forceQual string

	sel      *Selector
	aliases  map[string]bool
	joins    []plannedJoin
	implicit []*model.JoinStep
}

// plannedJoin is an explicit join with its alias and, for foreign-key
// derived joins, the resolved relationship.
type plannedJoin struct {
	spec   *joinSpec
	target *model.Model
	fk     *model.ForeignKey
	alias  string
}

func newScope(c *compiler, m *model.Model) *scope {
	return &scope{c: c, m: m, resolved: make(map[string]*model.ResolvedPath)}
}

func (sc *scope) resolve(expr string) (*model.ResolvedPath, error) {
	if rp, ok := sc.resolved[expr]; ok {
		return rp, nil
	}
	rp, err := sc.resolver.Resolve(expr)
	if err != nil {
		return nil, err
	}
	sc.resolved[expr] = rp
	return rp, nil
}

// colRef renders a qualified column reference for a resolved path.
// Statements without joins stay unqualified.
func (sc *scope) colRef(rp *model.ResolvedPath) string {
	q := rp.Qualifier
	if q == "" {
		return sc.rootColRef(rp.Column)
	}
	return sc.c.d.Escape(q) + "." + sc.c.d.Escape(rp.Column.Name)
}

// rootColRef renders a reference to a column of the root table.
func (sc *scope) rootColRef(col *model.Column) string {
	switch {
	case sc.forceQual != "":
		return sc.c.d.Escape(sc.forceQual) + "." + sc.c.d.Escape(col.Name)
	case sc.hasJoins:
		return sc.c.d.Escape(sc.m.Table) + "." + sc.c.d.Escape(col.Name)
	default:
		return sc.c.d.Escape(col.Name)
	}
}

// renderSelect compiles one SELECT statement into the compiler buffer.
// Subqueries recurse here with sub=true, sharing the compiler so their
// parameters interleave at the position the subquery appears.
func (c *compiler) renderSelect(s *Selector, m *model.Model, sub bool) error {
	if s.err != nil {
		return s.err
	}
	sc := newScope(c, m)
	sc.sel = s
	sc.aliases = make(map[string]bool)
	sc.resolver = model.NewResolver(m).OnJoin(func(step *model.JoinStep) {
		if !sc.aliases[step.Alias] {
			sc.aliases[step.Alias] = true
			sc.implicit = append(sc.implicit, step)
		}
	})

	if s.having != nil && len(s.groupBy) == 0 {
		return storm.NewQueryError(m.Name, "select", "HAVING requires at least one GROUP BY path")
	}
	if err := sc.planJoins(); err != nil {
		return err
	}
	if err := sc.resolveAll(); err != nil {
		return err
	}
	sc.hasJoins = len(sc.joins) > 0 || len(sc.implicit) > 0
	return sc.renderSelectText(sub)
}

// planJoins validates explicit joins, derives foreign-key ON conditions
// and aliases, and registers aliases with the resolver.
func (sc *scope) planJoins() error {
	s, m := sc.sel, sc.m
	for i := range s.joins {
		spec := &s.joins[i]
		alias := spec.alias
		var target *model.Model
		var fk *model.ForeignKey
		if spec.sub == nil {
			var err error
			target, err = modelOf(spec.target)
			if err != nil {
				return err
			}
			if spec.on == nil && spec.onRaw == "" && spec.kind != JoinCross {
				fk, err = foreignKeyTo(m, target)
				if err != nil {
					return err
				}
				if alias == "" {
					alias = fk.Path
				}
			}
		}
		if alias == "" {
			return storm.NewQueryError(m.Name, "select", "join requires an alias")
		}
		if sc.aliases[alias] {
			return storm.NewQueryError(m.Name, "select", fmt.Sprintf("duplicate join alias %q", alias))
		}
		sc.aliases[alias] = true
		if target != nil {
			sc.resolver.RegisterAlias(alias, target)
		}
		sc.joins = append(sc.joins, plannedJoin{spec: spec, target: target, fk: fk, alias: alias})
	}
	return nil
}

// foreignKeyTo finds the single foreign key of m referencing target.
func foreignKeyTo(m, target *model.Model) (*model.ForeignKey, error) {
	var found *model.ForeignKey
	for _, fk := range m.ForeignKeys {
		if fk.Ref != target {
			continue
		}
		if found != nil {
			return nil, storm.NewQueryError(m.Name, "select",
				fmt.Sprintf("multiple foreign keys reference %s; supply an alias and ON condition", target.Name))
		}
		found = fk
	}
	if found == nil {
		return nil, storm.NewQueryError(m.Name, "select",
			fmt.Sprintf("no foreign key references %s; supply an ON condition", target.Name))
	}
	return found, nil
}

// selectPaths returns the explicit projection paths, or nil when the
// full root column list is selected.
func (sc *scope) selectPaths() []string {
	s := sc.sel
	if len(s.paths) > 0 {
		return s.paths
	}
	if s.projection != nil {
		fields := s.projection.Fields()
		paths := make([]string, len(fields))
		for i, f := range fields {
			paths[i] = f.Name()
		}
		return paths
	}
	return nil
}

// resolveAll resolves every path the statement references before any
// text is rendered, so the implicit joins they require are known when
// the JOIN clause is written.
func (sc *scope) resolveAll() error {
	s := sc.sel
	if len(s.rawColumns) == 0 {
		for _, p := range sc.selectPaths() {
			if _, err := sc.resolve(p); err != nil {
				return err
			}
		}
	}
	for i := range sc.joins {
		if err := sc.resolveTree(sc.joins[i].spec.on); err != nil {
			return err
		}
	}
	if err := sc.resolveTree(s.where); err != nil {
		return err
	}
	for _, p := range s.groupBy {
		if _, err := sc.resolve(p); err != nil {
			return err
		}
	}
	if err := sc.resolveTree(s.having); err != nil {
		return err
	}
	for _, o := range s.orderBy {
		if o.raw {
			continue
		}
		if _, err := sc.resolve(o.expr); err != nil {
			return err
		}
	}
	return nil
}

// resolveTree resolves the paths of a predicate tree and validates leaf
// arity against the model.
func (sc *scope) resolveTree(p Predicate) error {
	switch p := p.(type) {
	case nil:
	case *Comparison:
		if p.err != nil {
			return p.err
		}
		if _, err := sc.resolve(p.Path); err != nil {
			return err
		}
	case *Composite:
		for _, child := range p.Children {
			if err := sc.resolveTree(child); err != nil {
				return err
			}
		}
	case *keyPredicate:
		pk, err := sc.m.RequirePrimaryKey()
		if err != nil {
			return err
		}
		if len(p.values) != len(pk) {
			return storm.NewQueryError(sc.m.Name, "where",
				fmt.Sprintf("key has %d values, primary key has %d columns", len(p.values), len(pk)))
		}
	case *keyInPredicate:
		pk, err := sc.m.RequirePrimaryKey()
		if err != nil {
			return err
		}
		for _, row := range p.rows {
			if len(row) != len(pk) {
				return storm.NewQueryError(sc.m.Name, "where",
					fmt.Sprintf("key tuple has %d values, primary key has %d columns", len(row), len(pk)))
			}
		}
	case *refPredicate:
		fk := sc.m.ForeignKey(p.path)
		if fk == nil {
			return storm.NewPathNotFoundError(sc.m.Name, p.path)
		}
		for _, row := range p.rows {
			if len(row) != len(fk.Columns) {
				return storm.NewQueryError(sc.m.Name, "where",
					fmt.Sprintf("related key tuple has %d values, reference has %d columns", len(row), len(fk.Columns)))
			}
		}
	case *Raw, *ExistsPredicate:
		// Raw fragments are opaque; EXISTS subqueries resolve in their
		// own scope during rendering.
	}
	return nil
}

// renderSelectText writes the statement in fixed clause order: select
// list, FROM/JOIN, WHERE, GROUP BY, HAVING, ORDER BY, pagination and
// lock clause, with dialect-positioned pagination and lock hints.
func (sc *scope) renderSelectText(sub bool) error {
	c, s := sc.c, sc.sel

	lockHint, err := sc.lockHint()
	if err != nil {
		return err
	}

	c.write("SELECT ")
	if s.distinct {
		c.write("DISTINCT ")
	}
	if s.limit >= 0 && c.d.ApplyLimitAfterSelect() {
		c.write(c.d.Limit(s.limit) + " ")
	}
	if err := sc.renderSelectList(sub); err != nil {
		return err
	}
	c.write(" FROM " + c.d.Escape(sc.m.Table))
	if lockHint != "" && c.d.ApplyLockHintAfterFrom() {
		c.write(" " + lockHint)
	}
	if err := sc.renderJoins(); err != nil {
		return err
	}
	if s.where != nil {
		c.write(" WHERE ")
		if err := sc.renderPredicate(s.where, false); err != nil {
			return err
		}
	}
	if len(s.groupBy) > 0 {
		c.write(" GROUP BY ")
		for i, p := range s.groupBy {
			if i > 0 {
				c.write(", ")
			}
			rp, err := sc.resolve(p)
			if err != nil {
				return err
			}
			c.write(sc.colRef(rp))
		}
	}
	if s.having != nil {
		c.write(" HAVING ")
		if err := sc.renderPredicate(s.having, false); err != nil {
			return err
		}
	}
	if len(s.orderBy) > 0 {
		c.write(" ORDER BY ")
		for i, o := range s.orderBy {
			if i > 0 {
				c.write(", ")
			}
			if o.raw {
				c.write(o.expr)
				continue
			}
			rp, err := sc.resolve(o.expr)
			if err != nil {
				return err
			}
			c.write(sc.colRef(rp))
			if o.desc {
				c.write(" DESC")
			}
		}
	}
	sc.renderPagination()
	if lockHint != "" && !c.d.ApplyLockHintAfterFrom() {
		c.write(" " + lockHint)
	}
	return nil
}

func (sc *scope) lockHint() (string, error) {
	c, s := sc.c, sc.sel
	switch s.lock {
	case lockNone:
		return "", nil
	case lockCustom:
		return s.lockClause, nil
	case lockShare:
		if hint, ok := c.d.ShareLockHint(); ok {
			return hint, nil
		}
		return "", storm.NewQueryError(sc.m.Name, "select",
			fmt.Sprintf("share lock is not supported by dialect %s", c.d.Name()))
	default:
		if hint, ok := c.d.UpdateLockHint(); ok {
			return hint, nil
		}
		return "", storm.NewQueryError(sc.m.Name, "select",
			fmt.Sprintf("update lock is not supported by dialect %s", c.d.Name()))
	}
}

func (sc *scope) renderSelectList(sub bool) error {
	c, s := sc.c, sc.sel
	if len(s.rawColumns) > 0 {
		c.write(strings.Join(s.rawColumns, ", "))
		return nil
	}
	if paths := sc.selectPaths(); len(paths) > 0 {
		for i, p := range paths {
			if i > 0 {
				c.write(", ")
			}
			rp, err := sc.resolve(p)
			if err != nil {
				return err
			}
			c.write(sc.colRef(rp))
		}
		return nil
	}
	if sub {
		c.write("1")
		return nil
	}
	for i, col := range sc.m.Columns {
		if i > 0 {
			c.write(", ")
		}
		c.write(sc.rootColRef(col))
	}
	return nil
}

// renderJoins writes explicit joins in declaration order, then the
// joins required by path resolution in first-seen order.
func (sc *scope) renderJoins() error {
	c := sc.c
	for i := range sc.joins {
		j := &sc.joins[i]
		c.write(" " + string(j.spec.kind) + " ")
		if j.spec.sub != nil {
			c.write("(")
			subModel, err := modelOf(j.spec.sub.def)
			if err != nil {
				return err
			}
			if err := c.renderSelect(j.spec.sub, subModel, true); err != nil {
				return err
			}
			c.write(")")
		} else {
			c.write(c.d.Escape(j.target.Table))
		}
		c.write(" AS " + c.d.Escape(j.alias))
		switch {
		case j.fk != nil:
			c.write(" ON ")
			sc.writeJoinCondition(j.fk, "", j.alias, j.fk.Ref)
		case j.spec.on != nil:
			c.write(" ON ")
			if err := sc.renderPredicate(j.spec.on, false); err != nil {
				return err
			}
		case j.spec.onRaw != "":
			c.write(" ON " + j.spec.onRaw)
		}
	}
	for _, step := range sc.implicit {
		kind := JoinInner
		if len(step.FK.Columns) > 0 && step.FK.Columns[0].Nullable {
			kind = JoinLeft
		}
		c.write(" " + string(kind) + " " + c.d.Escape(step.FK.Ref.Table) + " AS " + c.d.Escape(step.Alias) + " ON ")
		sc.writeJoinCondition(step.FK, step.FromAlias, step.Alias, step.FK.Ref)
	}
	return nil
}

// writeJoinCondition pairs the referencing columns on the near side with
// the primary-key columns on the far side.
func (sc *scope) writeJoinCondition(fk *model.ForeignKey, fromAlias, alias string, far *model.Model) {
	c := sc.c
	for i, col := range fk.Columns {
		if i > 0 {
			c.write(" AND ")
		}
		if fromAlias == "" {
			c.write(c.d.Escape(sc.m.Table) + "." + c.d.Escape(col.Name))
		} else {
			c.write(c.d.Escape(fromAlias) + "." + c.d.Escape(col.Name))
		}
		c.write(" = " + c.d.Escape(alias) + "." + c.d.Escape(far.PrimaryKey[i].Name))
	}
}

func (sc *scope) renderPagination() {
	c, s := sc.c, sc.sel
	if s.limit < 0 && s.offset < 0 {
		return
	}
	if c.d.ApplyLimitAfterSelect() {
		// Limit already rendered after SELECT.
		if s.offset >= 0 {
			c.write(" " + c.d.Offset(s.offset))
		}
		return
	}
	switch {
	case s.limit >= 0 && s.offset >= 0:
		c.write(" " + c.d.LimitOffset(s.offset, s.limit))
	case s.limit >= 0:
		c.write(" " + c.d.Limit(s.limit))
	default:
		c.write(" " + c.d.Offset(s.offset))
	}
}

// renderPredicate writes one predicate node. Nested composites are
// parenthesized; compose() merges same-connective children, so any
// nested composite carries the opposite connective.
func (sc *scope) renderPredicate(p Predicate, inComposite bool) error {
	c := sc.c
	switch p := p.(type) {
	case *Comparison:
		return sc.renderComparison(p)
	case *Raw:
		return sc.renderRaw(p)
	case *ExistsPredicate:
		if p.Negated {
			c.write("NOT ")
		}
		c.write("EXISTS (")
		subModel, err := modelOf(p.Sub.def)
		if err != nil {
			return err
		}
		if err := c.renderSelect(p.Sub, subModel, true); err != nil {
			return err
		}
		c.write(")")
		return nil
	case *Composite:
		if inComposite {
			c.write("(")
		}
		conn := " AND "
		if p.or {
			conn = " OR "
		}
		for i, child := range p.Children {
			if i > 0 {
				c.write(conn)
			}
			if err := sc.renderPredicate(child, true); err != nil {
				return err
			}
		}
		if inComposite {
			c.write(")")
		}
		return nil
	case *keyPredicate:
		pk, err := sc.m.RequirePrimaryKey()
		if err != nil {
			return err
		}
		return sc.renderTupleMatch(pk, [][]any{p.values}, inComposite)
	case *keyInPredicate:
		pk, err := sc.m.RequirePrimaryKey()
		if err != nil {
			return err
		}
		return sc.renderTupleMatch(pk, p.rows, inComposite)
	case *refPredicate:
		fk := sc.m.ForeignKey(p.path)
		if fk == nil {
			return storm.NewPathNotFoundError(sc.m.Name, p.path)
		}
		return sc.renderTupleMatch(fk.Columns, p.rows, inComposite)
	default:
		return storm.NewQueryError(sc.m.Name, "where", fmt.Sprintf("unsupported predicate node %T", p))
	}
}

func (sc *scope) renderComparison(p *Comparison) error {
	c := sc.c
	rp, err := sc.resolve(p.Path)
	if err != nil {
		return err
	}
	ref := sc.colRef(rp)
	conv := rp.Column.Converter
	switch p.Op {
	case OpIsNull, OpNotNull:
		c.write(ref + " " + string(p.Op))
	case OpIn, OpNotIn:
		if len(p.Values) == 0 {
			// Empty IN can match nothing; empty NOT IN excludes nothing.
			if p.Op == OpIn {
				c.write("1 = 0")
			} else {
				c.write("1 = 1")
			}
			return nil
		}
		c.write(ref + " " + string(p.Op) + " (")
		for i, v := range p.Values {
			if i > 0 {
				c.write(", ")
			}
			c.write(c.param(v, conv))
		}
		c.write(")")
	case OpBetween:
		c.write(ref + " BETWEEN " + c.param(p.Values[0], conv) + " AND " + c.param(p.Values[1], conv))
	default:
		c.write(ref + " " + string(p.Op) + " " + c.param(p.Values[0], conv))
	}
	return nil
}

// renderRaw writes a verbatim fragment, renumbering its ? markers into
// dialect placeholders.
func (sc *scope) renderRaw(p *Raw) error {
	c := sc.c
	n := 0
	for _, r := range p.SQL {
		if r != '?' {
			c.sb.WriteRune(r)
			continue
		}
		if n >= len(p.Args) {
			return storm.NewPredicateError("raw", p.SQL, len(p.Args), "more ? markers than arguments")
		}
		c.write(c.param(p.Args[n], nil))
		n++
	}
	if n != len(p.Args) {
		return storm.NewPredicateError("raw", p.SQL, len(p.Args), fmt.Sprintf("fragment has %d ? markers", n))
	}
	return nil
}

// renderTupleMatch matches a column tuple against value rows. A single
// row decomposes into an equality conjunction in column declaration
// order. Multiple rows render a single-column IN, the dialect's
// multi-value tuple IN, or the OR-of-ANDs fallback when tuples are
// unsupported; the parameter count is always rows times columns.
func (sc *scope) renderTupleMatch(cols []*model.Column, rows [][]any, inComposite bool) error {
	c := sc.c
	if len(rows) == 0 {
		c.write("1 = 0")
		return nil
	}
	if len(rows) == 1 {
		parens := inComposite && len(cols) > 1
		if parens {
			c.write("(")
		}
		for i, col := range cols {
			if i > 0 {
				c.write(" AND ")
			}
			c.write(sc.rootColRef(col) + " = " + c.param(rows[0][i], col.Converter))
		}
		if parens {
			c.write(")")
		}
		return nil
	}
	if len(cols) == 1 {
		c.write(sc.rootColRef(cols[0]) + " IN (")
		for i, row := range rows {
			if i > 0 {
				c.write(", ")
			}
			c.write(c.param(row[0], cols[0].Converter))
		}
		c.write(")")
		return nil
	}
	if c.d.SupportsMultiValueTuples() {
		refs := make([]string, len(cols))
		for i, col := range cols {
			refs[i] = sc.rootColRef(col)
		}
		row, col := 0, 0
		next := func() string {
			ph := c.param(rows[row][col], cols[col].Converter)
			col++
			if col == len(cols) {
				col, row = 0, row+1
			}
			return ph
		}
		c.write(c.d.MultiValueIn(refs, len(rows), next))
		return nil
	}
	// OR-of-ANDs fallback for dialects without tuple syntax.
	if inComposite {
		c.write("(")
	}
	for i, rowVals := range rows {
		if i > 0 {
			c.write(" OR ")
		}
		c.write("(")
		for j, col := range cols {
			if j > 0 {
				c.write(" AND ")
			}
			c.write(sc.rootColRef(col) + " = " + c.param(rowVals[j], col.Converter))
		}
		c.write(")")
	}
	if inComposite {
		c.write(")")
	}
	return nil
}
