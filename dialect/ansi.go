package dialect

import (
	"fmt"
	"strings"
)

// ansi is the default strategy for databases without a dedicated
// implementation. The other built-in strategies embed it and override
// where their product deviates.
type ansi struct{}

// Default returns the ANSI strategy.
func Default() Strategy { return ansi{} }

func (ansi) Name() string { return ANSI }

// Escape quotes with double quotes, doubling embedded quotes.
func (ansi) Escape(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (ansi) IsKeyword(name string) bool { return ansiKeywords.contains(name) }

func (ansi) Placeholder(int) string { return "?" }

func (ansi) SupportsMultiValueTuples() bool { return true }
func (ansi) SupportsDeleteAlias() bool      { return false }
func (ansi) SupportsReturning() bool        { return false }

func (ansi) Limit(n int) string                  { return fmt.Sprintf("LIMIT %d", n) }
func (ansi) Offset(n int) string                 { return fmt.Sprintf("OFFSET %d", n) }
func (ansi) LimitOffset(offset, n int) string    { return fmt.Sprintf("LIMIT %d OFFSET %d", n, offset) }
func (ansi) ApplyLimitAfterSelect() bool         { return false }

func (ansi) ShareLockHint() (string, bool)  { return "FOR SHARE", true }
func (ansi) UpdateLockHint() (string, bool) { return "FOR UPDATE", true }
func (ansi) ApplyLockHintAfterFrom() bool   { return false }

func (ansi) NextSequenceValue(seq string) (string, bool) {
	return "NEXT VALUE FOR " + seq, true
}

func (ansi) UpsertClause(conflict, update []string) (string, bool) { return "", false }

// MultiValueIn renders (a, b) IN ((?, ?), (?, ?)).
func (ansi) MultiValueIn(columns []string, rows int, next func() string) string {
	return multiValueIn(columns, rows, next)
}

// multiValueIn is the shared row-value rendering used by every strategy
// that supports tuple IN.
func multiValueIn(columns []string, rows int, next func() string) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") IN (")
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(next())
		}
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

// onConflictUpsert renders ON CONFLICT (cols) DO UPDATE SET c = excluded.c,
// the syntax shared by Postgres and SQLite modulo the excluded casing.
func onConflictUpsert(conflict, update []string, excluded string) (string, bool) {
	if len(conflict) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString("ON CONFLICT (")
	b.WriteString(strings.Join(conflict, ", "))
	b.WriteString(")")
	if len(update) == 0 {
		b.WriteString(" DO NOTHING")
		return b.String(), true
	}
	b.WriteString(" DO UPDATE SET ")
	for i, c := range update {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString(" = ")
		b.WriteString(excluded)
		b.WriteString(".")
		b.WriteString(c)
	}
	return b.String(), true
}
