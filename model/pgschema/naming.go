package pgschema

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowerCaser lower-cases with x/text's language-neutral casing (used
// here only to lower-case each uppercase rune while snake-casing; the
// identifier-casing transform itself is plain rune scanning, since
// x/text has no snake_case primitive).
var lowerCaser = cases.Lower(language.Und)

// TableNameFor derives the default physical table name for a logical
// type name: pluralize, then snake_case (spec §4.1 "default naming:
// pluralized snake_case of the type name").
func TableNameFor(typeName string) string {
	return SnakeCase(inflect.Pluralize(typeName))
}

// ColumnNameFor derives the default physical column name for a field
// name: snake_case of the field's camelCase spelling.
func ColumnNameFor(fieldName string) string {
	return SnakeCase(fieldName)
}

// ForeignKeyColumnFor derives the default owner-side FK column name
// for a to-one relation field, e.g. field "owner" referencing type
// "User" with primary key "id" becomes "owner_id".
func ForeignKeyColumnFor(fieldName string) string {
	return SnakeCase(fieldName) + "_id"
}

// SequenceNameFor derives the backing sequence name for an
// auto-incrementing primary key column (spec's DefaultAutoIncrement).
func SequenceNameFor(table, column string) string {
	return table + "_" + column + "_seq"
}

// SnakeCase converts a camelCase or PascalCase identifier to
// lower_snake_case, treating consecutive uppercase runs as a single
// word boundary (so "HTTPStatus" becomes "http_status", not
// "h_t_t_p_status").
func SnakeCase(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			startOfWord := i == 0 ||
				unicode.IsLower(runes[i-1]) ||
				unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && i > 0 && unicode.IsUpper(runes[i-1]))
			if i > 0 && startOfWord {
				sb.WriteByte('_')
			}
			sb.WriteString(lowerCaser.String(string(r)))
			continue
		}
		if r == '-' || r == ' ' {
			sb.WriteByte('_')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
