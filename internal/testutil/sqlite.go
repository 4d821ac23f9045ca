package testutil

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaprecord/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewSQLite returns a connected SQLite adapter on a fresh database file with
// the blog fixture tables (users, profiles, posts, comments, tags,
// posts_tags, tokens) migrated in. It is closed when the test ends.
func NewSQLite(t testing.TB) *sqlite.Adapter {
	t.Helper()

	a := sqlite.New(NewTestLogger(t))
	path := filepath.Join(t.TempDir(), "fixture.db")
	require.NoError(t, a.Connect(context.Background(), core.AdapterConfig{Type: "sqlite", Path: path}))
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, Migrate(a.DB))
	return a
}

// Migrate applies the embedded fixture migrations to db.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
