package record

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/inflect"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationHandles_CachedPerKindAndType(t *testing.T) {
	reg := newBlog(t, &fakeAdapter{})
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(7), "author_id": int64(2)}, false)

	first := e.BelongsTo("User", "author_id")
	again := e.BelongsTo("User", "something_else")
	assert.Same(t, first, again)

	kind, related := again.Describe()
	assert.Equal(t, schema.BelongsTo, kind)
	assert.Equal(t, "User", related)
	assert.Equal(t, "author_id", again.(*belongsTo).key, "first construction wins")

	assert.NotSame(t, e.HasMany("User", ""), first)
}

func TestGet_RelationResolvedOnce(t *testing.T) {
	ctx := context.Background()
	db := &fakeAdapter{
		rows: func(string, []any) []core.Row {
			return []core.Row{{"id": int64(2), "name": "Ada"}}
		},
	}
	reg := newBlog(t, db)
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(7), "author_id": int64(2)}, false)

	v1, err := e.Get(ctx, "author")
	require.NoError(t, err)
	v2, err := e.Get(ctx, "author")
	require.NoError(t, err)

	require.Len(t, db.calls, 1)
	assert.Equal(t, `SELECT * FROM "users" WHERE "id" = ? LIMIT 1`, db.calls[0].sql)
	assert.Equal(t, []any{int64(2)}, db.calls[0].args)

	a1, ok := v1.Entity()
	require.True(t, ok)
	a2, _ := v2.Entity()
	assert.Same(t, a1, a2)
	name, _ := As[string](a1, "name")
	assert.Equal(t, "Ada", name)
	assert.False(t, a1.IsNew())
}

func TestGet_RelationAbsentResultsAreMemoized(t *testing.T) {
	ctx := context.Background()
	db := &fakeAdapter{}
	reg := newBlog(t, db)
	e := mustModel(t, reg, "User").FromRow(core.Row{"id": int64(1)}, false)

	for i := 0; i < 2; i++ {
		v, err := e.Get(ctx, "profile")
		require.NoError(t, err)
		assert.False(t, v.Present())
	}
	require.Len(t, db.calls, 1)
	assert.Equal(t, `SELECT * FROM "profiles" WHERE "user_id" = ? LIMIT 1`, db.calls[0].sql)
}

func TestGet_RelationOnNewEntity(t *testing.T) {
	ctx := context.Background()
	db := &fakeAdapter{}
	reg := newBlog(t, db)
	e := mustModel(t, reg, "Post").New()
	e.Set("author_id", int64(2))

	v, err := e.Get(ctx, "author")
	require.NoError(t, err)
	assert.False(t, v.Present())
	assert.Empty(t, db.calls)
}

func TestGet_RelationStatements(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		model    string
		row      core.Row
		relation string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "has many with default key",
			model:    "Post",
			row:      core.Row{"id": int64(7)},
			relation: "comments",
			wantSQL:  `SELECT * FROM "comments" WHERE "post_id" = ? ORDER BY "id" ASC`,
			wantArgs: []any{int64(7)},
		},
		{
			name:     "has many with explicit key",
			model:    "User",
			row:      core.Row{"id": int64(3)},
			relation: "posts",
			wantSQL:  `SELECT * FROM "posts" WHERE "author_id" = ? ORDER BY "id" ASC`,
			wantArgs: []any{int64(3)},
		},
		{
			name:     "belongs to many through canonical join table",
			model:    "Post",
			row:      core.Row{"id": int64(7)},
			relation: "tags",
			wantSQL: `SELECT "tags".* FROM "tags" INNER JOIN "posts_tags" ON "posts_tags"."tag_id" = "tags"."id"` +
				` WHERE "posts_tags"."post_id" = ? ORDER BY "tags"."id" ASC`,
			wantArgs: []any{int64(7)},
		},
		{
			name:     "belongs to many from the other side",
			model:    "Tag",
			row:      core.Row{"id": int64(4)},
			relation: "posts",
			wantSQL: `SELECT "posts".* FROM "posts" INNER JOIN "posts_tags" ON "posts_tags"."post_id" = "posts"."id"` +
				` WHERE "posts_tags"."tag_id" = ? ORDER BY "posts"."id" ASC`,
			wantArgs: []any{int64(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeAdapter{}
			reg := newBlog(t, db)
			e := mustModel(t, reg, tt.model).FromRow(tt.row, false)

			v, err := e.Get(ctx, tt.relation)
			require.NoError(t, err)
			list, ok := v.Entities()
			require.True(t, ok)
			assert.Empty(t, list)

			require.Len(t, db.calls, 1)
			assert.Equal(t, tt.wantSQL, db.calls[0].sql)
			assert.Equal(t, tt.wantArgs, db.calls[0].args)
		})
	}
}

func TestJoinTable_SameFromEitherSide(t *testing.T) {
	assert.Equal(t, inflect.JoinTable("posts", "tags"), inflect.JoinTable("tags", "posts"))

	reg := newBlog(t, &fakeAdapter{})
	post := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1)}, false)
	tag := mustModel(t, reg, "Tag").FromRow(core.Row{"id": int64(1)}, false)

	fromPost := post.BelongsToMany("Tag", "", "", "").(*belongsToMany)
	fromTag := tag.BelongsToMany("Post", "", "", "").(*belongsToMany)
	assert.Equal(t, "posts_tags", fromPost.joinTable)
	assert.Equal(t, fromPost.joinTable, fromTag.joinTable)
	assert.Equal(t, "post_id", fromPost.key)
	assert.Equal(t, "tag_id", fromPost.otherKey)
}

func TestGet_RelationToUnregisteredType(t *testing.T) {
	ctx := context.Background()
	reg := newBlog(t, &fakeAdapter{})
	posts := mustModel(t, reg, "Post")
	posts.Relate("editor", func(e *Entity) Relation { return e.BelongsTo("Editor", "") })

	e := posts.FromRow(core.Row{"id": int64(1)}, false)
	_, err := e.Get(ctx, "editor")

	var unknown *UnknownModelError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Editor", unknown.Type)
	assert.Contains(t, unknown.Available, "Post")
}

func TestGet_RelationQueryFailure(t *testing.T) {
	ctx := context.Background()
	db := &fakeAdapter{err: errFake}
	reg := newBlog(t, db)
	e := mustModel(t, reg, "Post").FromRow(core.Row{"id": int64(1)}, false)

	_, err := e.Get(ctx, "comments")
	require.ErrorIs(t, err, errFake)
	assert.True(t, strings.Contains(err.Error(), "Post.comments"))

	db.err = nil
	_, err = e.Get(ctx, "comments")
	require.NoError(t, err)
	assert.Len(t, db.calls, 2, "failures are not memoized")
}

func TestRelate_CustomAccessor(t *testing.T) {
	ctx := context.Background()
	db := &fakeAdapter{}
	reg := newBlog(t, db)
	users := mustModel(t, reg, "User")
	users.Relate("articles", func(e *Entity) Relation { return e.HasMany("Post", "author_id") })

	assert.Equal(t, []string{"posts", "profile", "articles"}, users.Relations())

	e := users.FromRow(core.Row{"id": int64(5)}, false)
	_, err := e.Get(ctx, "articles")
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	assert.Equal(t, `SELECT * FROM "posts" WHERE "author_id" = ? ORDER BY "id" ASC`, db.calls[0].sql)
}
