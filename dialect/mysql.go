package dialect

import "strings"

var mysqlKeywords = ansiKeywords.extend(
	"ACCESSIBLE", "ANALYZE", "BEFORE", "BIGINT", "BINARY", "BLOB",
	"CHANGE", "CONDITION", "CONTINUE", "CONVERT", "DATABASE",
	"DATABASES", "DECLARE", "DELAYED", "DESCRIBE", "DIV", "DUAL",
	"EACH", "ENCLOSED", "ESCAPED", "EXIT", "EXPLAIN", "FORCE",
	"FULLTEXT", "GENERATED", "HIGH_PRIORITY", "IGNORE", "INDEX",
	"INFILE", "KEYS", "KILL", "LINES", "LOAD", "LOCK", "LONGBLOB",
	"LONGTEXT", "LOW_PRIORITY", "MATCH", "MEDIUMBLOB", "MEDIUMTEXT",
	"MOD", "NO_WRITE_TO_BINLOG", "OPTIMIZE", "OPTION", "OUTFILE",
	"PARTITION", "PURGE", "READ", "REGEXP", "RENAME", "REPLACE",
	"REQUIRE", "RLIKE", "SCHEMA", "SCHEMAS", "SEPARATOR", "SHOW",
	"SPATIAL", "SQL", "SSL", "STRAIGHT_JOIN", "TERMINATED", "TINYBLOB",
	"TINYTEXT", "TRIGGER", "UNDO", "UNLOCK", "UNSIGNED", "USAGE",
	"VARBINARY", "VARCHAR", "VIRTUAL", "XOR", "ZEROFILL",
)

type mysql struct{ ansi }

// NewMySQL returns the MySQL/MariaDB strategy.
func NewMySQL() Strategy { return mysql{} }

func (mysql) Name() string { return MySQL }

// Escape quotes with backticks, doubling embedded backticks.
func (mysql) Escape(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysql) IsKeyword(name string) bool { return mysqlKeywords.contains(name) }

// MySQL has no sequence objects.
func (mysql) NextSequenceValue(string) (string, bool) { return "", false }

// UpsertClause renders ON DUPLICATE KEY UPDATE c = VALUES(c). MySQL picks
// the conflict target itself, so the conflict columns only gate rendering.
func (mysql) UpsertClause(conflict, update []string) (string, bool) {
	if len(conflict) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString("ON DUPLICATE KEY UPDATE ")
	if len(update) == 0 {
		// No update set degenerates to a keyed no-op assignment.
		c := conflict[0]
		b.WriteString(c + " = " + c)
		return b.String(), true
	}
	for i, c := range update {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c + " = VALUES(" + c + ")")
	}
	return b.String(), true
}
