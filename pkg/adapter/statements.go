package adapter

import (
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
)

// BuildInsert renders an INSERT for values. An empty column list inserts
// DEFAULT VALUES. With a RETURNING dialect the pk column is returned.
func BuildInsert(d *dialect.Dialect, table, pk string, values core.Assignments, types core.ParamTypes) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.QuoteIdentifier(table))

	args := make([]any, 0, len(values))
	if len(values) == 0 {
		sb.WriteString(" DEFAULT VALUES")
	} else {
		sb.WriteString(" (")
		sb.WriteString(d.QuoteIdentifiers(values.Columns()))
		sb.WriteString(") VALUES (")
		for i, v := range values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.FormatPlaceholder(i + 1))
			args = append(args, bind(types, v))
		}
		sb.WriteString(")")
	}

	if d.Returning && pk != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(d.QuoteIdentifier(pk))
	}
	return sb.String(), args
}

// BuildUpdate renders an UPDATE of set filtered by the equality conditions in where.
func BuildUpdate(d *dialect.Dialect, table string, set, where core.Assignments, types core.ParamTypes) (string, []any) {
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(d.QuoteIdentifier(table))
	sb.WriteString(" SET ")

	args := make([]any, 0, len(set)+len(where))
	for i, v := range set {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.QuoteIdentifier(v.Column))
		sb.WriteString(" = ")
		sb.WriteString(d.FormatPlaceholder(len(args) + 1))
		args = append(args, bind(types, v))
	}
	args = writeWhere(&sb, d, where, types, args)
	return sb.String(), args
}

// BuildDelete renders a DELETE filtered by the equality conditions in where.
func BuildDelete(d *dialect.Dialect, table string, where core.Assignments, types core.ParamTypes) (string, []any) {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(d.QuoteIdentifier(table))
	args := writeWhere(&sb, d, where, types, make([]any, 0, len(where)))
	return sb.String(), args
}

func writeWhere(sb *strings.Builder, d *dialect.Dialect, where core.Assignments, types core.ParamTypes, args []any) []any {
	for i, w := range where {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(d.QuoteIdentifier(w.Column))
		if w.Value == nil {
			sb.WriteString(" IS NULL")
			continue
		}
		sb.WriteString(" = ")
		sb.WriteString(d.FormatPlaceholder(len(args) + 1))
		args = append(args, bind(types, w))
	}
	return args
}

// bind coerces a value to its declared bind type. Columns without a type
// are passed to the driver untouched.
func bind(types core.ParamTypes, a core.Assignment) any {
	if t, ok := types[a.Column]; ok {
		return BindValue(a.Value, t)
	}
	return a.Value
}
