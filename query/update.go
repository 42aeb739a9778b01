package query

import (
	"fmt"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/model"
	"github.com/storm-repo/storm-go/schema"
)

type setClause struct {
	path string
	val  any
	raw  string
}

// Updater accumulates the state of an UPDATE statement. Updates operate
// on the root table only; paths crossing a foreign key fail at Build.
type Updater struct {
	def     *schema.Definition
	sets    []setClause
	where   Predicate
	version any
	guarded bool
	safe    bool
	built   bool
	err     error
}

// Update starts an UPDATE builder for the given entity.
func Update(def *schema.Definition) *Updater {
	return &Updater{def: def}
}

func (u *Updater) clone() *Updater {
	if u.built {
		c := *u
		c.built = false
		if c.err == nil {
			c.err = errBuilt(u.def, "update")
		}
		return &c
	}
	c := *u
	c.sets = copySlice(u.sets)
	return &c
}

// Set assigns a path to a bound value.
func (u *Updater) Set(path string, v any) *Updater {
	c := u.clone()
	c.sets = append(c.sets, setClause{path: path, val: v})
	return c
}

// SetRaw assigns a path to a verbatim SQL expression.
func (u *Updater) SetRaw(path, expr string) *Updater {
	c := u.clone()
	c.sets = append(c.sets, setClause{path: path, raw: expr})
	return c
}

// Where adds a predicate, AND-combined with any existing one.
func (u *Updater) Where(p Predicate) *Updater {
	c := u.clone()
	c.where = And(c.where, p)
	return c
}

// WhereKey filters by primary key.
func (u *Updater) WhereKey(values ...any) *Updater {
	return u.Where(WhereKey(values...))
}

// CheckVersion adds the optimistic-lock guard: the statement only
// matches rows still carrying the given version, and the compiled
// statement is flagged version-aware so zero affected rows surface as a
// stale update.
func (u *Updater) CheckVersion(v any) *Updater {
	c := u.clone()
	c.version = v
	c.guarded = true
	return c
}

// Safe permits building without a WHERE clause. Without it a WHERE-less
// update fails, guarding against accidental full-table mutation.
func (u *Updater) Safe() *Updater {
	c := u.clone()
	c.safe = true
	return c
}

// Build compiles the accumulated state into an UPDATE statement. A
// declared version column is bumped automatically unless assigned
// explicitly.
func (u *Updater) Build(d dialect.Strategy) (*Statement, error) {
	if u.err != nil {
		return nil, u.err
	}
	m, err := modelOf(u.def)
	if err != nil {
		return nil, err
	}
	if m.Kind != schema.KindEntity {
		return nil, storm.NewQueryError(m.Name, "update", fmt.Sprintf("cannot update a %s", m.Kind))
	}
	if len(u.sets) == 0 {
		return nil, storm.NewQueryError(m.Name, "update", "no paths assigned")
	}
	if u.guarded && m.VersionColumn == nil {
		return nil, storm.NewQueryError(m.Name, "update", "entity has no version column")
	}
	if u.where == nil && !u.guarded && !u.safe {
		return nil, storm.NewMissingWhereClauseError(m.Name, "update")
	}
	u.built = true

	c := newCompiler(d)
	sc := newScope(c, m)
	sc.resolver = model.NewResolver(m).ExplicitOnly()

	where := u.where
	if u.guarded && m.VersionColumn != nil {
		where = And(where, EQ(m.VersionColumn.Path, u.version))
	}
	if err := sc.resolveTree(where); err != nil {
		return nil, err
	}

	c.write("UPDATE " + d.Escape(m.Table) + " SET ")
	versionSet := false
	for i, s := range u.sets {
		if i > 0 {
			c.write(", ")
		}
		rp, err := sc.resolve(s.path)
		if err != nil {
			return nil, err
		}
		col := rp.Column
		if !col.Updatable {
			return nil, storm.NewQueryError(m.Name, "update", fmt.Sprintf("path %q is not updatable", s.path))
		}
		if col.Version {
			versionSet = true
		}
		if s.raw != "" {
			c.write(d.Escape(col.Name) + " = " + s.raw)
			continue
		}
		c.write(d.Escape(col.Name) + " = " + c.param(s.val, col.Converter))
	}
	if m.VersionColumn != nil && !versionSet {
		v := d.Escape(m.VersionColumn.Name)
		c.write(", " + v + " = " + v + " + 1")
	}
	if where != nil {
		c.write(" WHERE ")
		if err := sc.renderMutationPredicate(where); err != nil {
			return nil, err
		}
	}

	st := c.statement(m.Name, "update")
	st.VersionAware = u.guarded && m.VersionColumn != nil
	return st, nil
}

// renderMutationPredicate renders a WHERE tree for UPDATE and DELETE,
// which carry no join machinery.
func (sc *scope) renderMutationPredicate(p Predicate) error {
	return sc.renderPredicate(p, false)
}
