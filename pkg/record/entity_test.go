package record

import (
	"context"
	"sort"
	"testing"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRow_FiltersUndeclaredKeys(t *testing.T) {
	reg := newBlog(t, &fakeAdapter{})
	posts := mustModel(t, reg, "Post")

	tests := []struct {
		name string
		row  core.Row
		want map[string]any
	}{
		{
			name: "unknown keys dropped",
			row:  core.Row{"id": int64(1), "title": "Hello", "password": "x", "rank": 3},
			want: map[string]any{"id": int64(1), "title": "Hello"},
		},
		{
			name: "keys canonicalized",
			row:  core.Row{"Title": "Hi", "AuthorId": int64(2)},
			want: map[string]any{"title": "Hi", "author_id": int64(2)},
		},
		{
			name: "exact field name wins over other spellings",
			row:  core.Row{"authorId": int64(1), "author_id": int64(2), "AuthorId": int64(3)},
			want: map[string]any{"author_id": int64(2)},
		},
		{
			name: "other spellings resolve in key order",
			row:  core.Row{"authorId": int64(1), "AuthorId": int64(3)},
			want: map[string]any{"author_id": int64(1)},
		},
		{
			name: "empty row",
			row:  core.Row{},
			want: map[string]any{},
		},
		{
			name: "nil row",
			row:  nil,
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := posts.FromRow(tt.row, true)
			assert.Equal(t, tt.want, e.Attributes())
			assert.True(t, e.IsNew())
			assert.False(t, e.IsDirty())
		})
	}
}

func TestFromRow_DecodesSerializedFields(t *testing.T) {
	reg := newBlog(t, &fakeAdapter{})
	posts := mustModel(t, reg, "Post")

	t.Run("persisted row is decoded", func(t *testing.T) {
		e := posts.FromRow(core.Row{"id": int64(1), "meta": `{"color":"red"}`}, false)
		meta, ok := e.Attr("meta")
		require.True(t, ok)
		assert.Equal(t, map[string]any{"color": "red"}, meta)
	})

	t.Run("new row is left alone", func(t *testing.T) {
		e := posts.FromRow(core.Row{"meta": `{"color":"red"}`}, true)
		meta, _ := e.Attr("meta")
		assert.Equal(t, `{"color":"red"}`, meta)
	})

	t.Run("empty value is left alone", func(t *testing.T) {
		e := posts.FromRow(core.Row{"id": int64(1), "meta": ""}, false)
		meta, _ := e.Attr("meta")
		assert.Equal(t, "", meta)
	})

	t.Run("encoded zero values are decoded", func(t *testing.T) {
		for raw, want := range map[string]any{"0": float64(0), "false": false, `""`: "", "[]": []any{}, "{}": map[string]any{}} {
			e := posts.FromRow(core.Row{"id": int64(1), "meta": raw}, false)
			meta, _ := e.Attr("meta")
			assert.Equal(t, want, meta, raw)
		}
	})

	t.Run("undecodable value is kept raw", func(t *testing.T) {
		e := posts.FromRow(core.Row{"id": int64(1), "meta": "{oops"}, false)
		meta, _ := e.Attr("meta")
		assert.Equal(t, "{oops", meta)
	})
}

func TestSet_AlwaysMarksDirty(t *testing.T) {
	reg := newBlog(t, &fakeAdapter{})
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1), "title": "Same"}, false)
	require.False(t, e.IsDirty())

	e.Set("title", "Same")
	assert.True(t, e.IsDirty())

	e.Set("title", "Same")
	assert.True(t, e.IsDirty())
	title, _ := As[string](e, "title")
	assert.Equal(t, "Same", title)
}

func TestSet_LaterSpellingWins(t *testing.T) {
	tests := []struct {
		name   string
		writes [][2]any
		want   int
	}{
		{"camel then snake", [][2]any{{"authorId", 1}, {"author_id", 2}}, 2},
		{"snake then camel", [][2]any{{"author_id", 1}, {"authorId", 2}}, 2},
		{"pascal then camel", [][2]any{{"AuthorId", 1}, {"authorId", 3}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newBlog(t, &fakeAdapter{})
			e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1)}, false)

			for _, w := range tt.writes {
				e.Set(w[0].(string), w[1])
			}

			assert.True(t, e.IsDirty())
			got, ok := e.Attr("author_id")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"author_id", "id"}, sortedKeys(e.Attributes()))
		})
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestSet_DropsUndeclaredNames(t *testing.T) {
	reg := newBlog(t, &fakeAdapter{})
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1)}, false)

	e.Set("password", "secret")

	assert.False(t, e.IsDirty())
	_, ok := e.Attr("password")
	assert.False(t, ok)
}

func TestHasAndUnset(t *testing.T) {
	reg := newBlog(t, &fakeAdapter{})
	e := mustModel(t, reg, "User").FromRow(core.Row{"id": int64(1), "name": "Ada", "email": nil}, false)

	assert.True(t, e.Has("name"))
	assert.False(t, e.Has("email"))
	assert.False(t, e.Has("nope"))

	e.Unset("name")
	assert.False(t, e.Has("name"))
	assert.False(t, e.IsDirty())
}

func TestGet_Fields(t *testing.T) {
	ctx := context.Background()
	db := &fakeAdapter{}
	reg := newBlog(t, db)
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1), "title": "Hello"}, false)

	v, err := e.Get(ctx, "title")
	require.NoError(t, err)
	assert.True(t, v.Present())
	assert.Equal(t, "Hello", v.Any())

	v, err = e.Get(ctx, "views")
	require.NoError(t, err)
	assert.False(t, v.Present(), "declared but unset")

	v, err = e.Get(ctx, "nonexistent")
	require.NoError(t, err)
	assert.False(t, v.Present())
	assert.Nil(t, v.Any())

	assert.Empty(t, db.calls)
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	reg := newBlog(t, &fakeAdapter{})
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1)}, false)

	calls := 0
	compute := func() any { calls++; return "computed" }

	assert.Equal(t, "computed", e.Remember("summary", compute).Any())
	assert.Equal(t, "computed", e.Remember("summary", compute).Any())
	assert.Equal(t, 1, calls)

	v, err := e.Get(ctx, "summary")
	require.NoError(t, err)
	assert.Equal(t, "computed", v.Any())
}

func TestAfterLoadHook(t *testing.T) {
	ctx := context.Background()
	db := &fakeAdapter{
		rows: func(string, []any) []core.Row {
			return []core.Row{{"id": int64(1), "title": "Fresh"}}
		},
	}
	loads := 0
	reg := newBlog(t, db, WithHooks(Hooks{AfterLoad: func(*Entity) { loads++ }}))
	posts := mustModel(t, reg, "Post")

	posts.New()
	assert.Equal(t, 1, loads)

	e := posts.FromRow(core.Row{"id": int64(1), "title": "Stale"}, false)
	assert.Equal(t, 2, loads)

	require.NoError(t, e.Reload(ctx))
	assert.Equal(t, 3, loads)
}

func TestReload(t *testing.T) {
	ctx := context.Background()

	t.Run("new entity", func(t *testing.T) {
		reg := newBlog(t, &fakeAdapter{})
		err := mustModel(t, reg, "Post").New().Reload(ctx)
		assert.ErrorIs(t, err, ErrNewEntity)
	})

	t.Run("replaces state and clears caches", func(t *testing.T) {
		db := &fakeAdapter{
			rows: func(string, []any) []core.Row {
				return []core.Row{{"id": int64(1), "title": "Fresh", "meta": `{"k":"v"}`}}
			},
		}
		reg := newBlog(t, db)
		e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1), "title": "Stale"}, false)
		e.Set("title", "Edited")
		e.Remember("summary", func() any { return "old" })
		handle := e.HasMany("Comment", "")

		require.NoError(t, e.Reload(ctx))

		assert.False(t, e.IsDirty())
		assert.False(t, e.IsNew())
		title, _ := As[string](e, "title")
		assert.Equal(t, "Fresh", title)
		meta, _ := e.Attr("meta")
		assert.Equal(t, map[string]any{"k": "v"}, meta)

		v, err := e.Get(ctx, "summary")
		require.NoError(t, err)
		assert.False(t, v.Present())
		assert.NotSame(t, handle, e.HasMany("Comment", ""))

		last := db.calls[len(db.calls)-1]
		assert.Equal(t, `SELECT * FROM "posts" WHERE "id" = ? LIMIT 1`, last.sql)
		assert.Equal(t, []any{int64(1)}, last.args)
	})

	t.Run("row gone", func(t *testing.T) {
		reg := newBlog(t, &fakeAdapter{})
		e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(9)}, false)
		assert.Error(t, e.Reload(ctx))
	})
}

func TestAs(t *testing.T) {
	reg := newBlog(t, &fakeAdapter{})
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1), "title": "T"}, false)

	id, ok := As[int64](e, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	_, ok = As[string](e, "id")
	assert.False(t, ok)

	_, ok = As[string](e, "views")
	assert.False(t, ok)
}
