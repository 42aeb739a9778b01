package dialect

import "fmt"

var postgresKeywords = ansiKeywords.extend(
	"ANALYSE", "ANALYZE", "ARRAY", "ASYMMETRIC", "AUTHORIZATION",
	"CONCURRENTLY", "CURRENT_CATALOG", "CURRENT_ROLE", "CURRENT_SCHEMA",
	"DEFERRABLE", "DO", "FREEZE", "ILIKE", "INITIALLY", "ISNULL",
	"LATERAL", "LEADING", "LOCALTIME", "LOCALTIMESTAMP", "NOTNULL",
	"ONLY", "OVERLAPS", "PLACING", "RETURNING", "SESSION_USER",
	"SIMILAR", "SYMMETRIC", "TABLESAMPLE", "TRAILING", "VARIADIC",
	"VERBOSE", "WINDOW",
)

type postgres struct{ ansi }

// NewPostgres returns the PostgreSQL strategy.
func NewPostgres() Strategy { return postgres{} }

func (postgres) Name() string { return Postgres }

func (postgres) IsKeyword(name string) bool { return postgresKeywords.contains(name) }

func (postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgres) SupportsDeleteAlias() bool { return true }
func (postgres) SupportsReturning() bool   { return true }

func (postgres) NextSequenceValue(seq string) (string, bool) {
	return fmt.Sprintf("nextval('%s')", seq), true
}

func (postgres) UpsertClause(conflict, update []string) (string, bool) {
	return onConflictUpsert(conflict, update, "EXCLUDED")
}
