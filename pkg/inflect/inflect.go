// Package inflect converts between the naming conventions used by the record
// engine: snake_case field names, CamelCase type names and plural table names.
//
// All functions are pure and deterministic.
package inflect

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Underscore converts a name to the canonical field-name case (snake_case).
// "UserName", "userName", "user-name" and "user name" all become "user_name";
// acronym runs are kept together ("HTTPServer" becomes "http_server").
func Underscore(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		if r == '-' || r == ' ' || r == '.' {
			r = '_'
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}

// Camelize converts a snake_case name to CamelCase without changing number.
func Camelize(s string) string {
	caser := cases.Title(language.English)
	parts := strings.FieldsFunc(Underscore(s), func(r rune) bool { return r == '_' })
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "")
}

// Classify converts a table or field name to the class-name case:
// singular and CamelCase ("blog_posts" becomes "BlogPost").
func Classify(s string) string {
	return Camelize(Singularize(Underscore(s)))
}

// Singularize returns the singular form of a word.
func Singularize(s string) string {
	return inflection.Singular(s)
}

// Pluralize returns the plural form of a word.
func Pluralize(s string) string {
	return inflection.Plural(s)
}

// Tableize converts a type or table name to its table name. The result does
// not depend on whether the input was singular or plural:
// "Post", "post" and "posts" all become "posts".
func Tableize(s string) string {
	return Pluralize(Singularize(Underscore(s)))
}

// ForeignKey returns the default key column that references table,
// "<singular table>_id".
func ForeignKey(table string) string {
	return Singularize(Underscore(table)) + "_id"
}

// JoinTable returns the canonical many-to-many join table for two sides.
// Both names are tableized and sorted, so the result is the same whichever
// side declares the relation.
func JoinTable(a, b string) string {
	names := []string{Tableize(a), Tableize(b)}
	sort.Strings(names)
	return strings.Join(names, "_")
}
