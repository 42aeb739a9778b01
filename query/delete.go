package query

import (
	"fmt"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/model"
	"github.com/storm-repo/storm-go/schema"
)

// Deleter accumulates the state of a DELETE statement.
type Deleter struct {
	def     *schema.Definition
	alias   string
	where   Predicate
	version any
	guarded bool
	safe    bool
	built   bool
	err     error
}

// Delete starts a DELETE builder for the given entity.
func Delete(def *schema.Definition) *Deleter {
	return &Deleter{def: def}
}

func (d *Deleter) clone() *Deleter {
	if d.built {
		c := *d
		c.built = false
		if c.err == nil {
			c.err = errBuilt(d.def, "delete")
		}
		return &c
	}
	c := *d
	return &c
}

// As aliases the target table, for correlated subquery predicates.
// Fails at Build when the dialect does not support DELETE aliases.
func (d *Deleter) As(alias string) *Deleter {
	c := d.clone()
	c.alias = alias
	return c
}

// Where adds a predicate, AND-combined with any existing one.
func (d *Deleter) Where(p Predicate) *Deleter {
	c := d.clone()
	c.where = And(c.where, p)
	return c
}

// WhereKey filters by primary key.
func (d *Deleter) WhereKey(values ...any) *Deleter {
	return d.Where(WhereKey(values...))
}

// WhereKeyIn filters by a set of primary keys.
func (d *Deleter) WhereKeyIn(keys ...any) *Deleter {
	return d.Where(WhereKeyIn(keys...))
}

// CheckVersion adds the optimistic-lock guard; zero affected rows then
// surface as a stale delete.
func (d *Deleter) CheckVersion(v any) *Deleter {
	c := d.clone()
	c.version = v
	c.guarded = true
	return c
}

// Safe permits building without a WHERE clause, producing a full-table
// DELETE.
func (d *Deleter) Safe() *Deleter {
	c := d.clone()
	c.safe = true
	return c
}

// Build compiles the accumulated state into a DELETE statement.
func (d *Deleter) Build(ds dialect.Strategy) (*Statement, error) {
	if d.err != nil {
		return nil, d.err
	}
	m, err := modelOf(d.def)
	if err != nil {
		return nil, err
	}
	if m.Kind != schema.KindEntity {
		return nil, storm.NewQueryError(m.Name, "delete", fmt.Sprintf("cannot delete from a %s", m.Kind))
	}
	if d.guarded && m.VersionColumn == nil {
		return nil, storm.NewQueryError(m.Name, "delete", "entity has no version column")
	}
	if d.where == nil && !d.guarded && !d.safe {
		return nil, storm.NewMissingWhereClauseError(m.Name, "delete")
	}
	if d.alias != "" && !ds.SupportsDeleteAlias() {
		return nil, storm.NewDialectError(ds.Name(), "delete alias",
			fmt.Sprintf("dialect %s cannot alias the DELETE target", ds.Name()))
	}
	d.built = true

	c := newCompiler(ds)
	sc := newScope(c, m)
	sc.resolver = model.NewResolver(m).ExplicitOnly()
	sc.forceQual = d.alias

	where := d.where
	if d.guarded && m.VersionColumn != nil {
		where = And(where, EQ(m.VersionColumn.Path, d.version))
	}
	if err := sc.resolveTree(where); err != nil {
		return nil, err
	}

	c.write("DELETE FROM " + ds.Escape(m.Table))
	if d.alias != "" {
		c.write(" AS " + ds.Escape(d.alias))
	}
	if where != nil {
		c.write(" WHERE ")
		if err := sc.renderMutationPredicate(where); err != nil {
			return nil, err
		}
	}

	st := c.statement(m.Name, "delete")
	st.VersionAware = d.guarded && m.VersionColumn != nil
	return st, nil
}
