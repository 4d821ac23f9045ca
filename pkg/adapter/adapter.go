// Package adapter provides the database collaborator contract used by the
// record engine, a database/sql based implementation of it and the adapter
// registry.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
)

// Adapter defines the interface that all database adapters must implement.
// Every method issues at most one statement and holds no transaction open
// across calls.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg core.AdapterConfig) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement and returns all rows as column maps.
	Query(ctx context.Context, sql string, args ...any) ([]core.Row, error)

	// Insert writes one row and returns the identifier assigned to pk.
	Insert(ctx context.Context, table, pk string, values core.Assignments, types core.ParamTypes) (any, error)

	// Update writes set to the rows matching where and returns the affected count.
	Update(ctx context.Context, table string, set, where core.Assignments, types core.ParamTypes) (int64, error)

	// Delete removes the rows matching where and returns the affected count.
	Delete(ctx context.Context, table string, where core.Assignments, types core.ParamTypes) (int64, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)

	// Dialect returns the SQL dialect used to render statements.
	Dialect() *dialect.Dialect
}
