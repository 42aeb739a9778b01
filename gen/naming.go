package gen

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Initialisms kept fully capitalized in generated identifiers.
var initialisms = map[string]string{
	"id":   "ID",
	"ip":   "IP",
	"sql":  "SQL",
	"uid":  "UID",
	"ui":   "UI",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
	"api":  "API",
	"json": "JSON",
	"db":   "DB",
}

var titler = cases.Title(language.Und, cases.NoLower)

// exportedName converts a field name ("firstName", "owner_id") into an
// exported Go identifier ("FirstName", "OwnerID").
func exportedName(name string) string {
	var b strings.Builder
	for _, seg := range strings.Split(inflect.Underscore(name), "_") {
		if seg == "" {
			continue
		}
		if up, ok := initialisms[seg]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(titler.String(seg))
	}
	return b.String()
}

// fileName derives the generated file name for a record type.
func fileName(typeName string) string {
	return inflect.Underscore(typeName) + "_storm.go"
}
