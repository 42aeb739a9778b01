// Package query provides the predicate tree, the fluent query builders
// and the compilation core that renders builder state plus an entity
// graph model and a dialect strategy into parameterized SQL.
//
// Builders behave as persistent values: every fluent call returns a new
// builder sharing unmodified substructure, so a builder held as a common
// prefix can branch into several queries without aliasing surprises.
// Compilation is pure; repeated Build calls on the same state yield
// byte-identical SQL and identical parameter order.
package query

// Arg is one ordered bind parameter of a compiled statement.
type Arg struct {
	// Value is the bound value, or a BindVar placeholder for
	// template-style statements.
	Value any
	// Convert, if set, is applied to the value before binding.
	Convert func(any) any
}

// Bind returns the execution-ready value, applying the converter and
// resolving bind variables from the given values.
func (a Arg) Bind(vars map[string]any) any {
	v := a.Value
	if bv, ok := v.(BindVar); ok {
		v = vars[bv.Name]
	}
	if a.Convert != nil {
		v = a.Convert(v)
	}
	return v
}

// BindVar is a named placeholder whose value is supplied at execution
// time, enabling batched reuse of one compiled statement.
type BindVar struct{ Name string }

// Param returns a named bind-variable placeholder usable anywhere a
// predicate or insert value is expected.
func Param(name string) BindVar { return BindVar{Name: name} }

// Statement is the final output of compilation: SQL text, the ordered
// parameter list, generated-key bookkeeping and the version-awareness
// flag. The statement text is opaque to the execution boundary beyond
// substituting positional placeholders with bound values in order.
type Statement struct {
	// SQL is the rendered statement text.
	SQL string
	// Entity is the root entity type name.
	Entity string
	// Operation is "select", "insert", "update" or "delete".
	Operation string
	// Args is the ordered parameter list. The n-th placeholder in SQL
	// corresponds to Args[n].
	Args []Arg
	// Batch holds per-row parameter sets for batched inserts. When set,
	// Args holds the first row.
	Batch [][]Arg
	// ReturnColumns are the generated-key column names to retrieve
	// post-execution.
	ReturnColumns []string
	// HasReturning reports that the generated keys are delivered through
	// a RETURNING clause rather than driver-side key retrieval.
	HasReturning bool
	// VersionAware reports that the statement carries an optimistic-lock
	// guard; zero affected rows indicate a stale version.
	VersionAware bool
}

// BindArgs resolves the ordered parameter values for execution,
// substituting named bind variables from vars and applying converters.
func (s *Statement) BindArgs(vars map[string]any) []any {
	out := make([]any, len(s.Args))
	for i, a := range s.Args {
		out[i] = a.Bind(vars)
	}
	return out
}

// ParamNames returns the named bind variables in placeholder order.
// Statements whose parameters are all named are reusable templates and
// eligible for the statement cache.
func (s *Statement) ParamNames() ([]string, bool) {
	names := make([]string, 0, len(s.Args))
	for _, a := range s.Args {
		bv, ok := a.Value.(BindVar)
		if !ok {
			return nil, false
		}
		names = append(names, bv.Name)
	}
	return names, true
}
