package record

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leaprecord/internal/testutil"
	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blogFixture struct {
	reg      *Registry
	users    *Model
	posts    *Model
	tags     *Model
	comments *Model
	tokens   *Model
}

func newBlogFixture(t *testing.T) blogFixture {
	t.Helper()
	db := testutil.NewSQLite(t)
	reg := newBlog(t, db)
	return blogFixture{
		reg:      reg,
		users:    mustModel(t, reg, "User"),
		posts:    mustModel(t, reg, "Post"),
		tags:     mustModel(t, reg, "Tag"),
		comments: mustModel(t, reg, "Comment"),
		tokens:   mustModel(t, reg, "Token"),
	}
}

func create(t *testing.T, m *Model, attrs map[string]any) *Entity {
	t.Helper()
	e := m.New()
	for k, v := range attrs {
		e.Set(k, v)
	}
	res, err := e.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, OpInsert, res.Op)
	return e
}

func TestSQLite_SerializedRoundTrip(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)

	author := create(t, fx.users, map[string]any{"name": "Ada"})
	meta := map[string]any{
		"color": "red",
		"sizes": []any{"s", "m"},
		"extra": map[string]any{"pinned": true},
	}
	post := create(t, fx.posts, map[string]any{
		"author_id": author.PrimaryKey(),
		"title":     "Hello",
		"meta":      meta,
	})

	require.NoError(t, post.Reload(ctx))
	got, _ := post.Attr("meta")
	assert.Equal(t, meta, got)

	found, err := fx.posts.Find(ctx, post.PrimaryKey())
	require.NoError(t, err)
	got, _ = found.Attr("meta")
	assert.Equal(t, meta, got)
	views, _ := As[int64](found, "views")
	assert.Equal(t, int64(0), views, "column default")
}

func TestSQLite_SerializedRoundTrip_EmptyAndZero(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)

	tests := []struct {
		name string
		meta any
	}{
		{"empty map", map[string]any{}},
		{"empty slice", []any{}},
		{"zero number", float64(0)},
		{"false", false},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := create(t, fx.posts, map[string]any{"title": tt.name, "meta": tt.meta})

			require.NoError(t, post.Reload(ctx))
			got, _ := post.Attr("meta")
			assert.Equal(t, tt.meta, got)

			post.Set("meta", tt.meta)
			res, err := post.Save(ctx)
			require.NoError(t, err)
			assert.Equal(t, OpUpdate, res.Op)

			found, err := fx.posts.Find(ctx, post.PrimaryKey())
			require.NoError(t, err)
			got, _ = found.Attr("meta")
			assert.Equal(t, tt.meta, got)
		})
	}
}

func TestSQLite_InsertUpdateDelete(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)

	u := fx.users.New()
	u.Set("name", "Ada")
	u.Set("email", "ada@example.com")
	res, err := u.Save(ctx)
	require.NoError(t, err)

	assert.False(t, u.IsNew())
	assert.Equal(t, int64(1), res.ID)
	assert.Equal(t, res.ID, u.PrimaryKey())

	u.Set("name", "Ada Lovelace")
	res, err = u.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Op: OpUpdate, RowsAffected: 1}, res)
	assert.False(t, u.IsDirty())

	loaded, err := fx.users.Find(ctx, int64(1))
	require.NoError(t, err)
	name, _ := As[string](loaded, "name")
	assert.Equal(t, "Ada Lovelace", name)

	res, err = loaded.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.True(t, loaded.IsNew())

	_, err = fx.users.Find(ctx, int64(1))
	assert.ErrorIs(t, err, query.ErrNotFound)

	// Deleting the stale copy affects nothing but still resets the flag.
	res, err = fx.users.FromRow(core.Row{"id": int64(1)}, false).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RowsAffected)
}

func TestSQLite_UniqueViolation(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)
	create(t, fx.users, map[string]any{"name": "Ada", "email": "ada@example.com"})

	dup := fx.users.New()
	dup.Set("name", "Other")
	dup.Set("email", "ada@example.com")
	_, err := dup.Save(ctx)

	require.ErrorIs(t, err, core.ErrUniqueViolation)
	assert.True(t, dup.IsNew())
}

func TestSQLite_Relations(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)

	ada := create(t, fx.users, map[string]any{"name": "Ada"})
	post := create(t, fx.posts, map[string]any{"author_id": ada.PrimaryKey(), "title": "Hello"})
	create(t, fx.comments, map[string]any{"post_id": post.PrimaryKey(), "body": "first"})
	create(t, fx.comments, map[string]any{"post_id": post.PrimaryKey(), "body": "second"})
	goTag := create(t, fx.tags, map[string]any{"label": "go"})
	sqlTag := create(t, fx.tags, map[string]any{"label": "sql"})
	create(t, fx.tags, map[string]any{"label": "unused"})

	for _, tag := range []*Entity{sqlTag, goTag} {
		require.NoError(t, fx.reg.Adapter().Exec(ctx,
			`INSERT INTO posts_tags (post_id, tag_id) VALUES (?, ?)`, post.PrimaryKey(), tag.PrimaryKey()))
	}

	loaded, err := fx.posts.Find(ctx, post.PrimaryKey())
	require.NoError(t, err)

	t.Run("belongs to", func(t *testing.T) {
		v, err := loaded.Get(ctx, "author")
		require.NoError(t, err)
		author, ok := v.Entity()
		require.True(t, ok)
		assert.Equal(t, ada.PrimaryKey(), author.PrimaryKey())
	})

	t.Run("has many", func(t *testing.T) {
		v, err := loaded.Get(ctx, "comments")
		require.NoError(t, err)
		list, _ := v.Entities()
		require.Len(t, list, 2)
		body, _ := As[string](list[0], "body")
		assert.Equal(t, "first", body)
	})

	t.Run("belongs to many", func(t *testing.T) {
		v, err := loaded.Get(ctx, "tags")
		require.NoError(t, err)
		list, _ := v.Entities()
		require.Len(t, list, 2)
		labels := []string{}
		for _, e := range list {
			l, _ := As[string](e, "label")
			labels = append(labels, l)
		}
		assert.Equal(t, []string{"go", "sql"}, labels)

		back, err := list[0].Get(ctx, "posts")
		require.NoError(t, err)
		posts, _ := back.Entities()
		require.Len(t, posts, 1)
		assert.Equal(t, post.PrimaryKey(), posts[0].PrimaryKey())
	})

	t.Run("has one absent", func(t *testing.T) {
		v, err := ada.Get(ctx, "profile")
		require.NoError(t, err)
		assert.False(t, v.Present())
	})

	t.Run("inverse has many", func(t *testing.T) {
		v, err := ada.Get(ctx, "posts")
		require.NoError(t, err)
		list, _ := v.Entities()
		require.Len(t, list, 1)
	})
}

func TestSQLite_Finder(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)

	ada := create(t, fx.users, map[string]any{"name": "Ada"})
	for i, title := range []string{"alpha", "beta", "gamma"} {
		create(t, fx.posts, map[string]any{"author_id": ada.PrimaryKey(), "title": title, "views": int64(i * 10)})
	}

	n, err := fx.posts.Query().Where(query.Gte("views", 10)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := fx.posts.Query().OrderBy("views", query.Desc).Limit(2).All(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	title, _ := As[string](list[0], "title")
	assert.Equal(t, "gamma", title)

	first, err := fx.posts.Query().Where(query.Like("title", "b%")).First(ctx)
	require.NoError(t, err)
	title, _ = As[string](first, "title")
	assert.Equal(t, "beta", title)

	joined, err := fx.posts.Query().
		Join("users", "users.id", "posts.author_id").
		Where(query.Eq("users.name", "Ada")).
		All(ctx)
	require.NoError(t, err)
	assert.Len(t, joined, 3)

	_, err = fx.posts.Query().Where(query.Eq("title", "missing")).First(ctx)
	assert.ErrorIs(t, err, query.ErrNotFound)
}

func TestSQLite_UUIDKeys(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)

	token := create(t, fx.tokens, map[string]any{"label": "ci"})
	id, ok := token.PrimaryKey().(string)
	require.True(t, ok)

	found, err := fx.tokens.Find(ctx, id)
	require.NoError(t, err)
	label, _ := As[string](found, "label")
	assert.Equal(t, "ci", label)
}

func TestSQLite_FromStruct(t *testing.T) {
	ctx := context.Background()
	fx := newBlogFixture(t)

	type postInput struct {
		Title    string
		AuthorID *int64 `db:"author_id"`
		Draft    bool   `db:"-"`
	}

	e, err := fx.posts.FromStruct(&postInput{Title: "From struct", Draft: true}, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "From struct", "author_id": nil}, e.Attributes())

	_, err = e.Save(ctx)
	require.NoError(t, err)

	found, err := fx.posts.Find(ctx, e.PrimaryKey())
	require.NoError(t, err)
	assert.False(t, found.Has("author_id"))

	_, err = fx.posts.FromStruct(42, true)
	assert.Error(t, err)
}
