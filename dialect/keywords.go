package dialect

import "strings"

// ansiKeywords is the shared reserved-word set checked by every built-in
// strategy. Dialect-specific additions are layered on top of it.
var ansiKeywords = newKeywordSet(
	"ALL", "AND", "ANY", "AS", "ASC", "BETWEEN", "BY", "CASE", "CHECK",
	"COLUMN", "CONSTRAINT", "CREATE", "CROSS", "CURRENT_DATE",
	"CURRENT_TIME", "CURRENT_TIMESTAMP", "DEFAULT", "DELETE", "DESC",
	"DISTINCT", "DROP", "ELSE", "END", "EXISTS", "FALSE", "FETCH", "FOR",
	"FOREIGN", "FROM", "FULL", "GROUP", "HAVING", "IN", "INNER", "INSERT",
	"INTERSECT", "INTO", "IS", "JOIN", "KEY", "LEFT", "LIKE", "LIMIT",
	"NOT", "NULL", "OFFSET", "ON", "OR", "ORDER", "OUTER", "PRIMARY",
	"REFERENCES", "RIGHT", "SELECT", "SET", "TABLE", "THEN", "TO", "TRUE",
	"UNION", "UNIQUE", "UPDATE", "USER", "USING", "VALUES", "WHEN",
	"WHERE", "WITH",
)

type keywordSet map[string]struct{}

func newKeywordSet(words ...string) keywordSet {
	s := make(keywordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// extend returns a new set holding the receiver plus the given words.
func (s keywordSet) extend(words ...string) keywordSet {
	n := make(keywordSet, len(s)+len(words))
	for w := range s {
		n[w] = struct{}{}
	}
	for _, w := range words {
		n[w] = struct{}{}
	}
	return n
}

// contains reports membership case-insensitively.
func (s keywordSet) contains(name string) bool {
	_, ok := s[strings.ToUpper(name)]
	return ok
}
