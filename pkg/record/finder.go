package record

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leaprecord/pkg/query"
)

// Finder is a query over one model that yields entities.
type Finder struct {
	model *Model
	b     *query.Builder
}

func newFinder(m *Model) *Finder {
	return &Finder{model: m, b: query.New(m.reg.db, m.desc.Table())}
}

func eqKey(m *Model, id any) query.Condition {
	return query.Eq(m.desc.PrimaryKey(), id)
}

// Where adds conditions joined with AND.
func (f *Finder) Where(conds ...query.Condition) *Finder {
	f.b.Where(conds...)
	return f
}

// OrWhere adds conditions joined with OR.
func (f *Finder) OrWhere(conds ...query.Condition) *Finder {
	f.b.OrWhere(conds...)
	return f
}

// Join adds an INNER JOIN; only the model's columns are selected.
func (f *Finder) Join(table, left, right string) *Finder {
	f.b.Join(table, left, right)
	return f
}

// OrderBy adds a sort term.
func (f *Finder) OrderBy(column string, dir query.Direction) *Finder {
	f.b.OrderBy(column, dir)
	return f
}

// Limit caps the number of entities returned.
func (f *Finder) Limit(n int) *Finder {
	f.b.Limit(n)
	return f
}

// Offset skips the first n entities.
func (f *Finder) Offset(n int) *Finder {
	f.b.Offset(n)
	return f
}

// Builder exposes the underlying query builder.
func (f *Finder) Builder() *query.Builder { return f.b }

// All loads every matching entity.
func (f *Finder) All(ctx context.Context) ([]*Entity, error) {
	rows, err := f.b.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", f.model.desc.Table(), err)
	}
	out := make([]*Entity, len(rows))
	for i, row := range rows {
		out[i] = f.model.FromRow(row, false)
	}
	return out, nil
}

// First loads the first matching entity. It returns query.ErrNotFound when
// nothing matches.
func (f *Finder) First(ctx context.Context) (*Entity, error) {
	row, err := f.b.First(ctx)
	if err != nil {
		return nil, err
	}
	return f.model.FromRow(row, false), nil
}

// Find loads the entity with the given primary key.
func (f *Finder) Find(ctx context.Context, id any) (*Entity, error) {
	return f.Where(eqKey(f.model, id)).First(ctx)
}

// Count returns the number of matching rows.
func (f *Finder) Count(ctx context.Context) (int64, error) {
	return f.b.Count(ctx)
}
