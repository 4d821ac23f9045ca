package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
)

// Querier runs SELECT statements. adapter.Adapter satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]core.Row, error)
	Dialect() *dialect.Dialect
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one ORDER BY term.
type Order struct {
	Column string
	Dir    Direction
}

type join struct {
	table string
	left  string
	right string
}

// Builder assembles a single SELECT. Builders are mutable; use Clone to
// branch one.
type Builder struct {
	q       Querier
	table   string
	columns []string
	joins   []join
	conds   []Condition
	orderBy []Order
	groupBy []string
	limit   int
	offset  int
}

// New starts a builder selecting from table.
func New(q Querier, table string) *Builder {
	return &Builder{q: q, table: table}
}

// Table returns the table the builder selects from.
func (b *Builder) Table() string { return b.table }

// Select sets the selected columns. The default is every column of the
// builder's table.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns, columns...)
	return b
}

// Where adds conditions to the query.
func (b *Builder) Where(conds ...Condition) *Builder {
	b.conds = append(b.conds, conds...)
	return b
}

// OrWhere adds conditions joined to the previous ones with OR.
func (b *Builder) OrWhere(conds ...Condition) *Builder {
	for _, c := range conds {
		b.conds = append(b.conds, Or(c))
	}
	return b
}

// Join adds an INNER JOIN of table on left = right.
func (b *Builder) Join(table, left, right string) *Builder {
	b.joins = append(b.joins, join{table: table, left: left, right: right})
	return b
}

// OrderBy adds an order clause to the query.
func (b *Builder) OrderBy(column string, dir Direction) *Builder {
	b.orderBy = append(b.orderBy, Order{Column: column, Dir: dir})
	return b
}

// GroupBy adds a group by clause to the query.
func (b *Builder) GroupBy(columns ...string) *Builder {
	b.groupBy = append(b.groupBy, columns...)
	return b
}

// Limit sets the limit for the query. Zero means no limit.
func (b *Builder) Limit(limit int) *Builder {
	b.limit = limit
	return b
}

// Offset sets the offset for the query.
func (b *Builder) Offset(offset int) *Builder {
	b.offset = offset
	return b
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	c := *b
	c.columns = append([]string(nil), b.columns...)
	c.joins = append([]join(nil), b.joins...)
	c.conds = append([]Condition(nil), b.conds...)
	c.orderBy = append([]Order(nil), b.orderBy...)
	c.groupBy = append([]string(nil), b.groupBy...)
	return &c
}

// ToSQL compiles the builder with the querier's dialect.
func (b *Builder) ToSQL() (string, []any, error) {
	return b.compile(b.dialect(), false)
}

// Rows runs the query and returns every row.
func (b *Builder) Rows(ctx context.Context) ([]core.Row, error) {
	sqlStr, args, err := b.ToSQL()
	if err != nil {
		return nil, err
	}
	return b.q.Query(ctx, sqlStr, args...)
}

// First returns the first matching row or ErrNotFound.
func (b *Builder) First(ctx context.Context) (core.Row, error) {
	rows, err := b.Clone().Limit(1).Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Count returns the number of matching rows. Ordering, limit and offset
// are ignored.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	sqlStr, args, err := b.compile(b.dialect(), true)
	if err != nil {
		return 0, err
	}
	rows, err := b.q.Query(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toCount(rows[0]["count"])
}

func (b *Builder) dialect() *dialect.Dialect {
	if b.q == nil || b.q.Dialect() == nil {
		return dialect.SQLite
	}
	return b.q.Dialect()
}

func (b *Builder) compile(d *dialect.Dialect, count bool) (string, []any, error) {
	if b.table == "" {
		return "", nil, ErrEmptyTable
	}

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	switch {
	case count:
		sb.WriteString("COUNT(*) AS count")
	case len(b.columns) > 0:
		sb.WriteString(d.QuoteIdentifiers(b.columns))
	case len(b.joins) > 0:
		sb.WriteString(d.QuoteIdentifier(b.table + ".*"))
	default:
		sb.WriteString("*")
	}

	sb.WriteString(" FROM ")
	sb.WriteString(d.QuoteIdentifier(b.table))

	for _, j := range b.joins {
		fmt.Fprintf(&sb, " INNER JOIN %s ON %s = %s",
			d.QuoteIdentifier(j.table), d.QuoteIdentifier(j.left), d.QuoteIdentifier(j.right))
	}

	for i, c := range b.conds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" " + c.logic + " ")
		}
		args = writeCondition(&sb, d, c, args)
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(d.QuoteIdentifiers(b.groupBy))
	}

	if count {
		return sb.String(), args, nil
	}

	for i, o := range b.orderBy {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		dir := o.Dir
		if dir != Desc {
			dir = Asc
		}
		sb.WriteString(d.QuoteIdentifier(o.Column) + " " + string(dir))
	}

	if b.limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET " + strconv.Itoa(b.offset))
	}
	return sb.String(), args, nil
}

func writeCondition(sb *strings.Builder, d *dialect.Dialect, c Condition, args []any) []any {
	col := d.QuoteIdentifier(c.field)
	switch c.operator {
	case "IS NULL", "IS NOT NULL":
		sb.WriteString(col + " " + c.operator)
	case "IN":
		values, _ := c.value.([]any)
		if len(values) == 0 {
			sb.WriteString("1 = 0")
			return args
		}
		sb.WriteString(col + " IN (")
		for i, v := range values {
			if i > 0 {
				sb.WriteString(", ")
			}
			args = append(args, v)
			sb.WriteString(d.FormatPlaceholder(len(args)))
		}
		sb.WriteString(")")
	default:
		args = append(args, c.value)
		sb.WriteString(col + " " + c.operator + " " + d.FormatPlaceholder(len(args)))
	}
	return args
}

func toCount(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil //nolint:gosec // row counts fit in int64
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value %T", v)
	}
}
