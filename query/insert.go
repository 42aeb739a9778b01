package query

import (
	"fmt"
	"sort"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/model"
	"github.com/storm-repo/storm-go/schema"
)

// Inserter accumulates the state of an INSERT statement. Multiple value
// rows compile into one statement template executed per row, so batches
// reuse a single compilation.
type Inserter struct {
	def           *schema.Definition
	rows          []map[string]any
	conflictPaths []string
	updatePaths   []string
	upsert        bool
	built         bool
	err           error
}

// InsertInto starts an INSERT builder for the given entity.
func InsertInto(def *schema.Definition) *Inserter {
	return &Inserter{def: def}
}

func (i *Inserter) clone() *Inserter {
	if i.built {
		c := *i
		c.built = false
		if c.err == nil {
			c.err = errBuilt(i.def, "insert")
		}
		return &c
	}
	c := *i
	c.rows = copySlice(i.rows)
	c.conflictPaths = copySlice(i.conflictPaths)
	c.updatePaths = copySlice(i.updatePaths)
	return &c
}

// Set assigns one path of the current row, starting the first row if
// none exists.
func (i *Inserter) Set(path string, v any) *Inserter {
	c := i.clone()
	if len(c.rows) == 0 {
		c.rows = append(c.rows, map[string]any{})
	} else {
		last := c.rows[len(c.rows)-1]
		row := make(map[string]any, len(last)+1)
		for k, val := range last {
			row[k] = val
		}
		c.rows[len(c.rows)-1] = row
	}
	c.rows[len(c.rows)-1][path] = v
	return c
}

// Values appends a full value row keyed by path. All rows of one batch
// must provide the same paths.
func (i *Inserter) Values(row map[string]any) *Inserter {
	c := i.clone()
	c.rows = append(c.rows, row)
	return c
}

// OnConflict marks the statement as an upsert keyed on the given paths.
func (i *Inserter) OnConflict(paths ...string) *Inserter {
	c := i.clone()
	c.upsert = true
	c.conflictPaths = append(c.conflictPaths, paths...)
	return c
}

// DoUpdate names the paths refreshed when the upsert hits an existing
// row. Defaults to every non-key insertable path.
func (i *Inserter) DoUpdate(paths ...string) *Inserter {
	c := i.clone()
	c.updatePaths = append(c.updatePaths, paths...)
	return c
}

// insertColumn is one entry of the compiled column plan.
type insertColumn struct {
	col *model.Column
	// expr is a rendered value expression (sequence next-value); when
	// empty the column binds a parameter.
	expr string
	// version marks the auto-initialized version column.
	version bool
}

// Build compiles the accumulated rows into an INSERT statement. Columns
// render in model declaration order; identity keys are omitted and
// reported through ReturnColumns, sequence keys render the dialect's
// next-value expression.
func (i *Inserter) Build(d dialect.Strategy) (*Statement, error) {
	if i.err != nil {
		return nil, i.err
	}
	m, err := modelOf(i.def)
	if err != nil {
		return nil, err
	}
	if m.Kind != schema.KindEntity {
		return nil, storm.NewQueryError(m.Name, "insert", fmt.Sprintf("cannot insert into a %s", m.Kind))
	}
	if len(i.rows) == 0 {
		return nil, storm.NewQueryError(m.Name, "insert", "no value rows")
	}
	i.built = true

	plan, err := i.columnPlan(m, d)
	if err != nil {
		return nil, err
	}

	c := newCompiler(d)
	c.write("INSERT INTO " + d.Escape(m.Table) + " (")
	for n, pc := range plan {
		if n > 0 {
			c.write(", ")
		}
		c.write(d.Escape(pc.col.Name))
	}
	c.write(") VALUES (")
	first := i.rows[0]
	for n, pc := range plan {
		if n > 0 {
			c.write(", ")
		}
		switch {
		case pc.expr != "":
			c.write(pc.expr)
		default:
			c.write(c.param(rowValue(pc, first), pc.col.Converter))
		}
	}
	c.write(")")

	if i.upsert {
		if err := i.renderUpsert(c, m, plan); err != nil {
			return nil, err
		}
	}

	st := c.statement(m.Name, "insert")
	if m.Generation != model.GenerateNone {
		for _, col := range m.PrimaryKey {
			st.ReturnColumns = append(st.ReturnColumns, col.Name)
		}
		if d.SupportsReturning() {
			st.SQL += " RETURNING "
			for n, col := range m.PrimaryKey {
				if n > 0 {
					st.SQL += ", "
				}
				st.SQL += d.Escape(col.Name)
			}
			st.HasReturning = true
		}
	}
	if len(i.rows) > 1 {
		st.Batch = make([][]Arg, len(i.rows))
		for r, row := range i.rows {
			args := make([]Arg, 0, len(st.Args))
			for _, pc := range plan {
				if pc.expr != "" {
					continue
				}
				args = append(args, Arg{Value: rowValue(pc, row), Convert: pc.col.Converter})
			}
			st.Batch[r] = args
		}
		st.Args = st.Batch[0]
	}
	return st, nil
}

func rowValue(pc insertColumn, row map[string]any) any {
	if v, ok := row[pc.col.Path]; ok {
		return v
	}
	if pc.version {
		// Auto-initialized optimistic-lock counter.
		return 1
	}
	return nil
}

// columnPlan derives the rendered column set from the model and the
// first row, and validates that every row binds the same paths.
func (i *Inserter) columnPlan(m *model.Model, d dialect.Strategy) ([]insertColumn, error) {
	first := i.rows[0]
	var plan []insertColumn
	bound := 0
	for _, col := range m.Columns {
		if !col.Insertable {
			continue
		}
		_, provided := first[col.Path]
		switch {
		case col.PrimaryKey && m.Generation == model.GenerateIdentity:
			// Omitted; the key is retrieved post-execution.
			continue
		case col.PrimaryKey && m.Generation == model.GenerateSequence:
			expr, ok := d.NextSequenceValue(m.SequenceName)
			if !ok {
				return nil, storm.NewDialectError(d.Name(), "sequences",
					fmt.Sprintf("dialect cannot generate keys from sequence %s", m.SequenceName))
			}
			plan = append(plan, insertColumn{col: col, expr: expr})
			continue
		case col.Version && !provided:
			plan = append(plan, insertColumn{col: col, version: true})
			continue
		case provided:
			plan = append(plan, insertColumn{col: col})
			bound++
		}
	}
	if bound == 0 {
		return nil, storm.NewQueryError(m.Name, "insert", "no insertable paths provided")
	}
	for _, row := range i.rows {
		if err := validateRow(m, first, row); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func validateRow(m *model.Model, first, row map[string]any) error {
	for path := range row {
		col := m.ColumnByPath(path)
		if col == nil {
			return storm.NewPathNotFoundError(m.Name, path)
		}
		if !col.Insertable {
			return storm.NewQueryError(m.Name, "insert", fmt.Sprintf("path %q is not insertable", path))
		}
		if _, ok := first[path]; !ok {
			return storm.NewQueryError(m.Name, "insert",
				fmt.Sprintf("batch rows bind different paths: unexpected %q", path))
		}
	}
	if len(row) != len(first) {
		missing := make([]string, 0, len(first))
		for path := range first {
			if _, ok := row[path]; !ok {
				missing = append(missing, path)
			}
		}
		sort.Strings(missing)
		return storm.NewQueryError(m.Name, "insert",
			fmt.Sprintf("batch rows bind different paths: missing %v", missing))
	}
	return nil
}

func (i *Inserter) renderUpsert(c *compiler, m *model.Model, plan []insertColumn) error {
	conflict, err := upsertColumns(m, i.conflictPaths)
	if err != nil {
		return err
	}
	if len(conflict) == 0 {
		for _, col := range m.PrimaryKey {
			conflict = append(conflict, col.Name)
		}
	}
	update := make([]string, 0, len(plan))
	if len(i.updatePaths) > 0 {
		update, err = upsertColumns(m, i.updatePaths)
		if err != nil {
			return err
		}
	} else {
		for _, pc := range plan {
			if pc.col.PrimaryKey || pc.expr != "" {
				continue
			}
			update = append(update, pc.col.Name)
		}
	}
	escape := func(names []string) []string {
		out := make([]string, len(names))
		for n, name := range names {
			out[n] = c.d.Escape(name)
		}
		return out
	}
	clause, ok := c.d.UpsertClause(escape(conflict), escape(update))
	if !ok {
		return storm.NewDialectError(c.d.Name(), "upsert",
			fmt.Sprintf("dialect %s has no upsert clause", c.d.Name()))
	}
	c.write(" " + clause)
	return nil
}

func upsertColumns(m *model.Model, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		col := m.ColumnByPath(p)
		if col == nil {
			return nil, storm.NewPathNotFoundError(m.Name, p)
		}
		out = append(out, col.Name)
	}
	return out, nil
}
