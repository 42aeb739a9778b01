package dialect

var sqliteKeywords = ansiKeywords.extend(
	"ABORT", "ACTION", "AFTER", "ATTACH", "AUTOINCREMENT", "BEFORE",
	"CASCADE", "CONFLICT", "DEFERRED", "DETACH", "EXCLUSIVE", "EXPLAIN",
	"FAIL", "GLOB", "IGNORE", "IMMEDIATE", "INDEX", "INDEXED", "INSTEAD",
	"ISNULL", "MATCH", "NOTNULL", "PLAN", "PRAGMA", "QUERY", "RAISE",
	"RECURSIVE", "REGEXP", "REINDEX", "RELEASE", "RENAME", "REPLACE",
	"RESTRICT", "ROLLBACK", "ROW", "SAVEPOINT", "TEMP", "TEMPORARY",
	"TRANSACTION", "TRIGGER", "VACUUM", "VIEW", "VIRTUAL", "WITHOUT",
)

type sqlite struct{ ansi }

// NewSQLite returns the SQLite strategy.
func NewSQLite() Strategy { return sqlite{} }

func (sqlite) Name() string { return SQLite }

func (sqlite) IsKeyword(name string) bool { return sqliteKeywords.contains(name) }

// Row-value IN requires a recent SQLite and trips older deployments, so the
// compiler's OR-of-ANDs fallback is used instead.
func (sqlite) SupportsMultiValueTuples() bool { return false }

func (sqlite) SupportsReturning() bool { return true }

// SQLite has no row-locking hints; transactions lock the whole database.
func (sqlite) ShareLockHint() (string, bool)  { return "", false }
func (sqlite) UpdateLockHint() (string, bool) { return "", false }

func (sqlite) NextSequenceValue(string) (string, bool) { return "", false }

func (sqlite) UpsertClause(conflict, update []string) (string, bool) {
	return onConflictUpsert(conflict, update, "excluded")
}
