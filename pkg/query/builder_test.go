package query

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingQuerier returns canned rows and remembers the last statement.
type recordingQuerier struct {
	d    *dialect.Dialect
	rows []core.Row
	err  error
	sql  string
	args []any
}

func (r *recordingQuerier) Query(_ context.Context, sql string, args ...any) ([]core.Row, error) {
	r.sql, r.args = sql, args
	return r.rows, r.err
}

func (r *recordingQuerier) Dialect() *dialect.Dialect { return r.d }

func TestBuilder_ToSQL(t *testing.T) {
	sqlite := &recordingQuerier{d: dialect.SQLite}
	pg := &recordingQuerier{d: dialect.Postgres}

	tests := []struct {
		name     string
		build    *Builder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "bare table",
			build:   New(sqlite, "posts"),
			wantSQL: `SELECT * FROM "posts"`,
		},
		{
			name: "conditions ordering and paging",
			build: New(pg, "posts").
				Where(Eq("author_id", 3), Gte("views", 10)).
				OrWhere(Like("title", "Go%")).
				OrderBy("id", Desc).
				OrderBy("title", "").
				Limit(5).
				Offset(10),
			wantSQL:  `SELECT * FROM "posts" WHERE "author_id" = $1 AND "views" >= $2 OR "title" LIKE $3 ORDER BY "id" DESC, "title" ASC LIMIT 5 OFFSET 10`,
			wantArgs: []any{3, 10, "Go%"},
		},
		{
			name:     "select columns with null checks",
			build:    New(sqlite, "users").Select("id", "email").Where(Eq("deleted_at", nil), Neq("email", nil), Neq("role", "admin")),
			wantSQL:  `SELECT "id", "email" FROM "users" WHERE "deleted_at" IS NULL AND "email" IS NOT NULL AND "role" != ?`,
			wantArgs: []any{"admin"},
		},
		{
			name:     "in list",
			build:    New(pg, "tags").Where(In("id", 1, 2, 3), Lt("id", 9), Lte("id", 8), Gt("id", 0)),
			wantSQL:  `SELECT * FROM "tags" WHERE "id" IN ($1, $2, $3) AND "id" < $4 AND "id" <= $5 AND "id" > $6`,
			wantArgs: []any{1, 2, 3, 9, 8, 0},
		},
		{
			name:    "empty in list",
			build:   New(sqlite, "tags").Where(In("id")),
			wantSQL: `SELECT * FROM "tags" WHERE 1 = 0`,
		},
		{
			name: "join selects the base table",
			build: New(sqlite, "tags").
				Join("posts_tags", "posts_tags.tag_id", "tags.id").
				Where(Eq("posts_tags.post_id", 7)),
			wantSQL:  `SELECT "tags".* FROM "tags" INNER JOIN "posts_tags" ON "posts_tags"."tag_id" = "tags"."id" WHERE "posts_tags"."post_id" = ?`,
			wantArgs: []any{7},
		},
		{
			name:    "group by",
			build:   New(sqlite, "posts").Select("author_id").GroupBy("author_id"),
			wantSQL: `SELECT "author_id" FROM "posts" GROUP BY "author_id"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.build.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuilder_EmptyTable(t *testing.T) {
	_, _, err := New(&recordingQuerier{}, "").ToSQL()
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = New(&recordingQuerier{}, "").Rows(context.Background())
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestBuilder_NilDialectFallsBack(t *testing.T) {
	sql, _, err := New(&recordingQuerier{}, "posts").Where(Eq("id", 1)).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "posts" WHERE "id" = ?`, sql)
}

func TestBuilder_First(t *testing.T) {
	ctx := context.Background()
	q := &recordingQuerier{d: dialect.SQLite, rows: []core.Row{{"id": int64(1)}}}

	b := New(q, "posts").Where(Eq("id", 1))
	row, err := b.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Row{"id": int64(1)}, row)
	assert.Equal(t, `SELECT * FROM "posts" WHERE "id" = ? LIMIT 1`, q.sql)

	// First does not leak its limit into the original builder
	sql, _, _ := b.ToSQL()
	assert.NotContains(t, sql, "LIMIT")

	q.rows = nil
	_, err = b.First(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	q.err = assert.AnError
	_, err = b.First(ctx)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBuilder_Count(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		rows []core.Row
		want int64
	}{
		{"int64", []core.Row{{"count": int64(4)}}, 4},
		{"text", []core.Row{{"count": []byte("12")}}, 12},
		{"no rows", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &recordingQuerier{d: dialect.Postgres, rows: tt.rows}
			n, err := New(q, "posts").Where(Eq("author_id", 2)).OrderBy("id", Asc).Limit(3).Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, `SELECT COUNT(*) AS count FROM "posts" WHERE "author_id" = $1`, q.sql)
		})
	}

	q := &recordingQuerier{d: dialect.SQLite, rows: []core.Row{{"count": "many"}}}
	_, err := New(q, "posts").Count(ctx)
	require.Error(t, err)
}

func TestBuilder_Clone(t *testing.T) {
	base := New(&recordingQuerier{d: dialect.SQLite}, "posts").Where(Eq("a", 1))
	branch := base.Clone().Where(Eq("b", 2))

	baseSQL, _, _ := base.ToSQL()
	branchSQL, _, _ := branch.ToSQL()
	assert.Equal(t, `SELECT * FROM "posts" WHERE "a" = ?`, baseSQL)
	assert.Equal(t, `SELECT * FROM "posts" WHERE "a" = ? AND "b" = ?`, branchSQL)
	assert.Equal(t, "posts", branch.Table())
}

func TestConditionAccessors(t *testing.T) {
	c := Or(Gt("age", 18))
	assert.Equal(t, "age", c.Field())
	assert.Equal(t, ">", c.Operator())
	assert.Equal(t, 18, c.Value())
	assert.Equal(t, "OR", c.Logic())
}
