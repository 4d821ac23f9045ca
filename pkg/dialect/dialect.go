// Package dialect provides the SQL dialect configuration used to render
// statements: parameter placeholders, identifier quoting and how generated
// keys are read back after an INSERT.
//
// Concrete dialects are registered here and looked up by adapters and the
// query builder.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/core"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	core.DialectConfig
}

// New creates a dialect from its static configuration.
func New(cfg core.DialectConfig) *Dialect {
	if cfg.Identifiers.Quote == "" {
		cfg.Identifiers = core.IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`}
	}
	return &Dialect{DialectConfig: cfg}
}

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	cfg := d.DialectConfig
	return &cfg
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
// Qualified names ("schema.table") are quoted part by part.
func (d *Dialect) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		escaped := strings.ReplaceAll(p, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
		parts[i] = d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
	}
	return strings.Join(parts, ".")
}

// QuoteIdentifiers quotes every name and joins them with ", ".
func (d *Dialect) QuoteIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}
