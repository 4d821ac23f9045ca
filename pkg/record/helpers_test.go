package record

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/leaprecord/pkg/adapter"
	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
	"github.com/stretchr/testify/require"
)

func blogSpecs() []schema.Spec {
	return []schema.Spec{
		{
			Type: "User",
			Fields: []schema.Field{
				{Name: "name"},
				{Name: "email", Nullable: true},
			},
			Relations: []schema.RelationSpec{
				{Name: "posts", Kind: schema.HasMany, Type: "Post", Key: "author_id"},
				{Name: "profile", Kind: schema.HasOne, Type: "Profile"},
			},
		},
		{
			Type: "Profile",
			Fields: []schema.Field{
				{Name: "user_id", Type: schema.TypeInt},
				{Name: "bio"},
			},
			Relations: []schema.RelationSpec{
				{Name: "user", Kind: schema.BelongsTo, Type: "User"},
			},
		},
		{
			Type: "Post",
			Fields: []schema.Field{
				{Name: "author_id", Type: schema.TypeInt},
				{Name: "title"},
				{Name: "views", Type: schema.TypeInt},
				{Name: "meta", Type: schema.TypeJSON, Serialized: true},
			},
			Relations: []schema.RelationSpec{
				{Name: "author", Kind: schema.BelongsTo, Type: "User", Key: "author_id"},
				{Name: "comments", Kind: schema.HasMany, Type: "Comment"},
				{Name: "tags", Kind: schema.BelongsToMany, Type: "Tag"},
			},
		},
		{
			Type: "Comment",
			Fields: []schema.Field{
				{Name: "post_id", Type: schema.TypeInt},
				{Name: "body"},
			},
			Relations: []schema.RelationSpec{
				{Name: "post", Kind: schema.BelongsTo, Type: "Post"},
			},
		},
		{
			Type:   "Tag",
			Fields: []schema.Field{{Name: "label"}},
			Relations: []schema.RelationSpec{
				{Name: "posts", Kind: schema.BelongsToMany, Type: "Post"},
			},
		},
		{
			Type:        "Token",
			KeyStrategy: schema.KeyUUID,
			Fields:      []schema.Field{{Name: "label"}},
		},
	}
}

// newBlog registers the blog models on db.
func newBlog(t *testing.T, db adapter.Adapter, opts ...ModelOption) *Registry {
	t.Helper()
	reg := NewRegistry(db, nil)
	for _, spec := range blogSpecs() {
		desc, err := schema.New(spec)
		require.NoError(t, err)
		_, err = reg.Register(desc, opts...)
		require.NoError(t, err)
	}
	return reg
}

func mustModel(t *testing.T, reg *Registry, name string) *Model {
	t.Helper()
	m, err := reg.Model(name)
	require.NoError(t, err)
	return m
}

type fakeCall struct {
	op     string
	table  string
	sql    string
	args   []any
	values core.Assignments
	where  core.Assignments
	types  core.ParamTypes
}

// fakeAdapter records every call. Query answers come from rows; Insert
// returns insertID unless the caller supplied the key.
type fakeAdapter struct {
	calls    []fakeCall
	rows     func(sql string, args []any) []core.Row
	insertID any
	affected int64
	err      error
}

var _ adapter.Adapter = (*fakeAdapter)(nil)

var errFake = errors.New("fake failure")

func (f *fakeAdapter) Connect(context.Context, core.AdapterConfig) error { return nil }
func (f *fakeAdapter) Close() error                                      { return nil }
func (f *fakeAdapter) Dialect() *dialect.Dialect                         { return dialect.SQLite }

func (f *fakeAdapter) Exec(_ context.Context, sql string, args ...any) error {
	f.calls = append(f.calls, fakeCall{op: "exec", sql: sql, args: args})
	return f.err
}

func (f *fakeAdapter) Query(_ context.Context, sql string, args ...any) ([]core.Row, error) {
	f.calls = append(f.calls, fakeCall{op: "query", sql: sql, args: args})
	if f.err != nil {
		return nil, f.err
	}
	if f.rows == nil {
		return nil, nil
	}
	return f.rows(sql, args), nil
}

func (f *fakeAdapter) Insert(_ context.Context, table, pk string, values core.Assignments, types core.ParamTypes) (any, error) {
	f.calls = append(f.calls, fakeCall{op: "insert", table: table, values: values, types: types})
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := values.Get(pk); ok && id != nil {
		return id, nil
	}
	return f.insertID, nil
}

func (f *fakeAdapter) Update(_ context.Context, table string, set, where core.Assignments, types core.ParamTypes) (int64, error) {
	f.calls = append(f.calls, fakeCall{op: "update", table: table, values: set, where: where, types: types})
	return f.affected, f.err
}

func (f *fakeAdapter) Delete(_ context.Context, table string, where core.Assignments, types core.ParamTypes) (int64, error) {
	f.calls = append(f.calls, fakeCall{op: "delete", table: table, where: where, types: types})
	return f.affected, f.err
}

func (f *fakeAdapter) GetTableMetadata(_ context.Context, table string) (*core.TableMetadata, error) {
	return &core.TableMetadata{Name: table}, nil
}

func (f *fakeAdapter) ops() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}
