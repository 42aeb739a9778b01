package query

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
)

// StatementCache memoizes compiled statement text keyed by builder
// shape and dialect. Only fully parameterized statements, whose every
// bound value is a named bind variable and whose columns need no value
// conversion, are cached; anything else compiles directly.
type StatementCache struct {
	store storm.Cache
	ttl   time.Duration
}

// NewStatementCache wraps a cache store. A zero ttl never expires.
func NewStatementCache(store storm.Cache, ttl time.Duration) *StatementCache {
	return &StatementCache{store: store, ttl: ttl}
}

// cachedStatement is the serialized form of a compiled template. Bound
// values are never cached, only the bind-variable names in placeholder
// order.
type cachedStatement struct {
	SQL           string   `msgpack:"sql"`
	Params        []string `msgpack:"params"`
	ReturnColumns []string `msgpack:"return_columns,omitempty"`
	HasReturning  bool     `msgpack:"has_returning,omitempty"`
	VersionAware  bool     `msgpack:"version_aware,omitempty"`
}

func (cs *cachedStatement) statement(entity, op string) *Statement {
	args := make([]Arg, len(cs.Params))
	for i, name := range cs.Params {
		args[i] = Arg{Value: BindVar{Name: name}}
	}
	return &Statement{
		SQL:           cs.SQL,
		Entity:        entity,
		Operation:     op,
		Args:          args,
		ReturnColumns: cs.ReturnColumns,
		HasReturning:  cs.HasReturning,
		VersionAware:  cs.VersionAware,
	}
}

func (sc *StatementCache) selectStatement(ctx context.Context, s *Selector, d dialect.Strategy) (*Statement, error) {
	if s.err != nil || s.def == nil {
		return s.Build(d)
	}
	key := storm.CacheKey{
		Dialect:     d.Name(),
		Entity:      s.def.Name(),
		Operation:   "select",
		Fingerprint: s.fingerprint(),
	}.String()

	if b, err := sc.store.Get(ctx, key); err == nil && b != nil {
		var cs cachedStatement
		if msgpack.Unmarshal(b, &cs) == nil {
			return cs.statement(s.def.Name(), "select"), nil
		}
	}

	st, err := s.Build(d)
	if err != nil {
		return nil, err
	}
	if names, ok := cacheableParams(st); ok {
		b, err := msgpack.Marshal(&cachedStatement{
			SQL:           st.SQL,
			Params:        names,
			ReturnColumns: st.ReturnColumns,
			HasReturning:  st.HasReturning,
			VersionAware:  st.VersionAware,
		})
		if err == nil {
			// Failed stores only cost the next caller a recompile.
			_ = sc.store.Set(ctx, key, b, sc.ttl)
		}
	}
	return st, nil
}

// cacheableParams reports the bind-variable names of a template-style
// statement. Statements with literal values or per-column converters
// cannot be rebuilt from cached text and are skipped.
func cacheableParams(st *Statement) ([]string, bool) {
	for _, a := range st.Args {
		if a.Convert != nil {
			return nil, false
		}
	}
	return st.ParamNames()
}

// fingerprint hashes the structural shape of the selector: paths,
// operators, join topology, pagination and lock mode. Bound values do
// not participate except to distinguish bind variables from literals.
func (s *Selector) fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "sel|%s|d=%t|", s.def.Name(), s.distinct)
	for _, p := range s.paths {
		fmt.Fprintf(h, "p=%s|", p)
	}
	for _, rc := range s.rawColumns {
		fmt.Fprintf(h, "rc=%s|", rc)
	}
	if s.projection != nil {
		fmt.Fprintf(h, "proj=%s|", s.projection.Name())
	}
	for _, j := range s.joins {
		fmt.Fprintf(h, "j=%s,%s|", j.kind, j.alias)
		if j.target != nil {
			fmt.Fprintf(h, "jt=%s|", j.target.Name())
		}
		if j.sub != nil {
			fmt.Fprintf(h, "js=%s|", j.sub.fingerprint())
		}
		fingerprintPredicate(h, j.on)
		fmt.Fprintf(h, "jraw=%s|", j.onRaw)
	}
	fingerprintPredicate(h, s.where)
	for _, g := range s.groupBy {
		fmt.Fprintf(h, "g=%s|", g)
	}
	fingerprintPredicate(h, s.having)
	for _, o := range s.orderBy {
		fmt.Fprintf(h, "o=%s,%t,%t|", o.expr, o.desc, o.raw)
	}
	fmt.Fprintf(h, "l=%d,%d|lk=%d,%s", s.limit, s.offset, s.lock, s.lockClause)
	return fmt.Sprintf("%016x", h.Sum64())
}

func fingerprintPredicate(w io.Writer, p Predicate) {
	switch p := p.(type) {
	case nil:
		io.WriteString(w, "_")
	case *Comparison:
		fmt.Fprintf(w, "c(%s %s", p.Path, p.Op)
		for _, v := range p.Values {
			if bv, ok := v.(BindVar); ok {
				fmt.Fprintf(w, " :%s", bv.Name)
			} else {
				io.WriteString(w, " ?")
			}
		}
		io.WriteString(w, ")")
	case *Raw:
		fmt.Fprintf(w, "r(%s/%d)", p.SQL, len(p.Args))
	case *ExistsPredicate:
		fmt.Fprintf(w, "e(%t,%s)", p.Negated, p.Sub.fingerprint())
	case *Composite:
		if p.or {
			io.WriteString(w, "or(")
		} else {
			io.WriteString(w, "and(")
		}
		for _, child := range p.Children {
			fingerprintPredicate(w, child)
		}
		io.WriteString(w, ")")
	case *keyPredicate:
		fmt.Fprintf(w, "k(%d)", len(p.values))
	case *keyInPredicate:
		fmt.Fprintf(w, "ki(%d)", len(p.rows))
	case *refPredicate:
		fmt.Fprintf(w, "rf(%s,%d)", p.path, len(p.rows))
	}
}
