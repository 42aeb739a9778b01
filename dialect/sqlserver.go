package dialect

import (
	"fmt"
	"strings"
)

var sqlserverKeywords = ansiKeywords.extend(
	"BACKUP", "BREAK", "BROWSE", "BULK", "CHECKPOINT", "CLUSTERED",
	"COMPUTE", "CONTAINS", "CONTAINSTABLE", "DATABASE", "DBCC", "DENY",
	"DISK", "DISTRIBUTED", "DUMP", "ERRLVL", "EXEC", "EXECUTE",
	"FILLFACTOR", "FREETEXT", "FREETEXTTABLE", "HOLDLOCK", "IDENTITY",
	"IDENTITYCOL", "IDENTITY_INSERT", "IF", "KILL", "LINENO", "LOAD",
	"MERGE", "NOCHECK", "NONCLUSTERED", "OFF", "OFFSETS", "OPENDATASOURCE",
	"OPENQUERY", "OPENROWSET", "OPENXML", "OVER", "PERCENT", "PIVOT",
	"PLAN", "PRINT", "PROC", "PROCEDURE", "RAISERROR", "READTEXT",
	"RECONFIGURE", "REPLICATION", "RESTORE", "REVERT", "ROWCOUNT",
	"ROWGUIDCOL", "RULE", "SAVE", "SECURITYAUDIT", "SEMANTICKEYPHRASETABLE",
	"SHUTDOWN", "STATISTICS", "TABLESAMPLE", "TEXTSIZE", "TOP", "TRAN",
	"TRANSACTION", "TRUNCATE", "TSEQUAL", "UNPIVOT", "UPDATETEXT",
	"WAITFOR", "WRITETEXT",
)

type sqlserver struct{ ansi }

// NewSQLServer returns the SQL Server (T-SQL) strategy.
func NewSQLServer() Strategy { return sqlserver{} }

func (sqlserver) Name() string { return SQLServer }

// Escape quotes with brackets, doubling embedded closing brackets.
func (sqlserver) Escape(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (sqlserver) IsKeyword(name string) bool { return sqlserverKeywords.contains(name) }

func (sqlserver) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

func (sqlserver) SupportsMultiValueTuples() bool { return false }

// Limit renders TOP, placed right after the SELECT keyword.
func (sqlserver) Limit(n int) string { return fmt.Sprintf("TOP %d", n) }

func (sqlserver) Offset(n int) string { return fmt.Sprintf("OFFSET %d ROWS", n) }

func (sqlserver) LimitOffset(offset, n int) string {
	return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, n)
}

func (sqlserver) ApplyLimitAfterSelect() bool { return true }

func (sqlserver) ShareLockHint() (string, bool)  { return "WITH (HOLDLOCK)", true }
func (sqlserver) UpdateLockHint() (string, bool) { return "WITH (UPDLOCK)", true }
func (sqlserver) ApplyLockHintAfterFrom() bool   { return true }

func (sqlserver) NextSequenceValue(seq string) (string, bool) {
	return "NEXT VALUE FOR " + seq, true
}
