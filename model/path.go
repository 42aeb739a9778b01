package model

import (
	"sort"
	"strings"

	storm "github.com/storm-repo/storm-go"
)

// JoinStep is one foreign-key hop required to reach a resolved column.
type JoinStep struct {
	// FK is the foreign key being crossed.
	FK *ForeignKey
	// From is the model on the near side of the hop; its columns are
	// qualified by FromAlias ("" for the root table).
	From *Model
	// FromAlias qualifies the near side.
	FromAlias string
	// Alias qualifies the far (joined) side. Derived from the dotted
	// path, so the same type referenced twice gets distinct aliases.
	Alias string
}

// ResolvedPath is an immutable resolved position in an entity's field
// graph.
type ResolvedPath struct {
	// Root is the model the path was resolved against.
	Root *Model
	// Expr is the original path expression.
	Expr string
	// Column is the terminal column.
	Column *Column
	// Qualifier is the alias or table qualifier of the terminal column;
	// empty means the root table.
	Qualifier string
	// Joins holds the foreign-key hops required, outermost first. Empty
	// for columns living in the root table (scalars, inline components
	// and foreign-key reference columns).
	Joins []*JoinStep
}

// Resolver resolves dotted path expressions against a root model.
// Registered aliases (from explicit joins) take precedence over the
// structural walk, and resolving a path that crosses an unjoined foreign
// key reports the required implicit joins to the caller via OnJoin.
type Resolver struct {
	root         *Model
	aliases      map[string]*Model
	explicitOnly bool
	onJoin       func(*JoinStep)
}

// NewResolver creates a resolver for the given root model.
func NewResolver(root *Model) *Resolver {
	return &Resolver{root: root, aliases: make(map[string]*Model)}
}

// RegisterAlias records an explicitly joined source so that paths
// qualified with the alias resolve against it.
func (r *Resolver) RegisterAlias(alias string, m *Model) {
	r.aliases[alias] = m
}

// ExplicitOnly makes the resolver reject paths that would require an
// implicit join. Used by operations whose contract states joins must be
// pre-declared.
func (r *Resolver) ExplicitOnly() *Resolver {
	r.explicitOnly = true
	return r
}

// OnJoin sets the callback invoked once per implicit join requirement.
func (r *Resolver) OnJoin(fn func(*JoinStep)) *Resolver {
	r.onJoin = fn
	return r
}

// Resolve resolves a path expression to a concrete column reference.
//
// Precedence: an exact alias-qualified match first (so manually added
// joins can be referenced), then a structural walk of the entity graph.
// Bare field names are searched across the root's own columns and one
// level into foreign-key targets; multiple structurally distinct matches
// without a disambiguating path fail with a PathError.
func (r *Resolver) Resolve(expr string) (*ResolvedPath, error) {
	if expr == "" {
		return nil, storm.NewPathNotFoundError(r.root.Name, expr)
	}
	segs := strings.Split(expr, ".")

	// Alias-qualified: "v.name" where "v" was registered by a join.
	if len(segs) > 1 {
		if m, ok := r.aliases[segs[0]]; ok {
			col := m.ColumnByPath(strings.Join(segs[1:], "."))
			if col == nil {
				return nil, storm.NewPathNotFoundError(m.Name, expr)
			}
			return &ResolvedPath{Root: r.root, Expr: expr, Column: col, Qualifier: segs[0]}, nil
		}
	}

	// Exact path in the root table: scalars, flattened inline components
	// and foreign-key reference columns ("owner.id" without a join).
	if col := r.root.ColumnByPath(expr); col != nil {
		return &ResolvedPath{Root: r.root, Expr: expr, Column: col}, nil
	}

	if len(segs) == 1 {
		return r.resolveBare(expr)
	}
	return r.walkJoins(expr, segs)
}

// resolveBare resolves a single unqualified field name.
func (r *Resolver) resolveBare(name string) (*ResolvedPath, error) {
	type match struct {
		path  string
		build func() (*ResolvedPath, error)
	}
	var matches []match
	for _, col := range r.root.Columns {
		if col.FieldName == name {
			c := col
			matches = append(matches, match{path: c.Path, build: func() (*ResolvedPath, error) {
				return &ResolvedPath{Root: r.root, Expr: name, Column: c}, nil
			}})
		}
	}
	// One level into foreign-key targets, excluding reference columns
	// already matched above.
	for _, fk := range r.root.ForeignKeys {
		for _, col := range fk.Ref.Columns {
			if col.FieldName != name || col.PrimaryKey {
				continue
			}
			fk, c := fk, col
			matches = append(matches, match{path: fk.Path + "." + c.Path, build: func() (*ResolvedPath, error) {
				return r.walkJoins(fk.Path+"."+c.Path, strings.Split(fk.Path+"."+c.Path, "."))
			}})
		}
	}
	switch len(matches) {
	case 0:
		return nil, storm.NewPathNotFoundError(r.root.Name, name)
	case 1:
		return matches[0].build()
	default:
		candidates := make([]string, len(matches))
		for i, m := range matches {
			candidates[i] = m.path
		}
		sort.Strings(candidates)
		return nil, storm.NewAmbiguousPathError(r.root.Name, name, candidates)
	}
}

// walkJoins resolves a dotted path that crosses one or more foreign keys.
// At every level the remainder is matched against the current table first,
// so foreign-key reference columns ("owner.id") and flattened inline paths
// resolve without a join; only then is a foreign-key hop taken.
func (r *Resolver) walkJoins(expr string, segs []string) (*ResolvedPath, error) {
	cur := r.root
	qualifier := ""
	var joins []*JoinStep
	for i := 0; i < len(segs); i++ {
		rest := strings.Join(segs[i:], ".")
		if col := cur.ColumnByPath(rest); col != nil {
			return &ResolvedPath{Root: r.root, Expr: expr, Column: col, Qualifier: qualifier, Joins: joins}, nil
		}
		fk := foreignKeyAt(cur, segs[i])
		if fk == nil {
			return nil, storm.NewPathNotFoundError(r.root.Name, expr)
		}
		if r.explicitOnly {
			return nil, &storm.PathError{
				Type: r.root.Name, Path: expr, Cause: storm.ErrPathNotFound,
				Candidates: []string{"join " + fk.Ref.Table + " explicitly first"},
			}
		}
		alias := underscored(strings.Join(segs[:i+1], "."))
		step := &JoinStep{FK: fk, From: cur, FromAlias: qualifier, Alias: alias}
		joins = append(joins, step)
		if r.onJoin != nil {
			r.onJoin(step)
		}
		cur = fk.Ref
		qualifier = alias
	}
	return nil, storm.NewPathNotFoundError(r.root.Name, expr)
}

func foreignKeyAt(m *Model, field string) *ForeignKey {
	for _, fk := range m.ForeignKeys {
		if fk.FieldName == field {
			return fk
		}
	}
	return nil
}
