// Package dialect provides database dialect strategies for storm.
//
// A Strategy describes one database product's SQL syntax variations:
// identifier escaping, reserved words, placeholder style, LIMIT/OFFSET
// rendering, lock hints, multi-value tuple support and upsert syntax.
// Strategies are stateless pure-function objects and are safe to share
// across concurrent compilations.
package dialect

import "fmt"

// Dialect names.
const (
	ANSI      = "ansi"
	MySQL     = "mysql"
	Postgres  = "postgres"
	SQLite    = "sqlite"
	SQLServer = "sqlserver"
)

// Strategy describes per-database SQL quirks. All methods are pure queries;
// implementations hold no mutable state.
type Strategy interface {
	// Name returns the dialect name.
	Name() string

	// Escape quotes an identifier, doubling any embedded quote characters.
	Escape(ident string) string

	// IsKeyword reports whether name is a reserved word, case-insensitively.
	IsKeyword(name string) bool

	// Placeholder returns the bind-variable marker for the n-th parameter
	// (1-based): "?" for MySQL/SQLite, "$1" for Postgres, "@p1" for SQL Server.
	Placeholder(n int) string

	// SupportsMultiValueTuples reports whether the dialect accepts
	// row-value constructors in IN clauses: (a, b) IN ((?, ?), (?, ?)).
	SupportsMultiValueTuples() bool

	// SupportsDeleteAlias reports whether DELETE FROM accepts a table alias.
	SupportsDeleteAlias() bool

	// SupportsReturning reports whether INSERT ... RETURNING is available
	// for generated-key retrieval.
	SupportsReturning() bool

	// Limit renders a row-limit clause for n rows.
	Limit(n int) string

	// Offset renders a row-offset clause skipping n rows.
	Offset(n int) string

	// LimitOffset renders a combined limit/offset clause.
	LimitOffset(offset, n int) string

	// ApplyLimitAfterSelect reports whether the Limit clause is placed
	// right after the SELECT keyword (TOP style) instead of being appended
	// at the end of the statement.
	ApplyLimitAfterSelect() bool

	// ShareLockHint returns the shared-lock hint text, or false when the
	// dialect has no such syntax.
	ShareLockHint() (string, bool)

	// UpdateLockHint returns the exclusive-lock hint text, or false when
	// the dialect has no such syntax.
	UpdateLockHint() (string, bool)

	// ApplyLockHintAfterFrom reports whether lock hints are placed after
	// the FROM clause instead of at the end of the statement.
	ApplyLockHintAfterFrom() bool

	// NextSequenceValue renders the next-value expression for a named
	// sequence, or false when the dialect has no sequences.
	NextSequenceValue(seq string) (string, bool)

	// UpsertClause renders the dialect's upsert suffix for the given
	// conflict and update column names (already escaped), or false when
	// the dialect has no upsert syntax.
	UpsertClause(conflict, update []string) (string, bool)

	// MultiValueIn renders a row-value IN comparison over the given
	// escaped column names for the given number of rows, drawing one
	// placeholder per value from next. It must only be called when
	// SupportsMultiValueTuples reports true; the compiler chooses the
	// fallback rendering otherwise.
	MultiValueIn(columns []string, rows int, next func() string) string
}

// ByName returns the built-in strategy for the given dialect name.
func ByName(name string) (Strategy, error) {
	switch name {
	case ANSI:
		return Default(), nil
	case MySQL:
		return NewMySQL(), nil
	case Postgres:
		return NewPostgres(), nil
	case SQLite:
		return NewSQLite(), nil
	case SQLServer:
		return NewSQLServer(), nil
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}
