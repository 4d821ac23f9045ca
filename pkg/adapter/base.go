package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query, Insert, Update and Delete implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger

	// SQL is the dialect statements are rendered with.
	SQL *dialect.Dialect

	// MapError translates driver errors (e.g. constraint violations) to
	// core sentinels. Optional.
	MapError func(error) error
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		b.logger().Debug("closing database connection")
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if b.DB == nil {
		return core.ErrNotConnected
	}
	b.logger().Debug("exec", "sql", sqlStr, "args", len(args))
	if _, err := b.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", b.mapError(err))
	}
	return nil
}

// Query executes a SQL statement and collects every row into a column map.
// []byte values are copied since drivers may reuse the buffer.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) ([]core.Row, error) {
	if b.DB == nil {
		return nil, core.ErrNotConnected
	}
	b.logger().Debug("query", "sql", sqlStr, "args", len(args))

	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", b.mapError(err))
	}
	defer func() { _ = rows.Close() }()

	return ScanRows(rows)
}

// ScanRows reads all remaining rows into column maps.
func ScanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []core.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(cols))
		for i, col := range cols {
			if bs, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), bs...)
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Insert writes one row. With a RETURNING dialect the generated key is read
// back from the statement; otherwise LastInsertId is used. When the caller
// supplied pk explicitly its value is returned as is.
func (b *BaseSQLAdapter) Insert(ctx context.Context, table, pk string, values core.Assignments, types core.ParamTypes) (any, error) {
	if b.DB == nil {
		return nil, core.ErrNotConnected
	}
	d := b.dialect()
	query, args := BuildInsert(d, table, pk, values, types)
	b.logger().Debug("insert", "table", table, "sql", query)

	if supplied, ok := values.Get(pk); ok && supplied != nil {
		if _, err := b.DB.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", table, b.mapError(err))
		}
		return supplied, nil
	}

	if d.Returning && pk != "" {
		var id any
		if err := b.DB.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", table, b.mapError(err))
		}
		return id, nil
	}

	res, err := b.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, b.mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read generated key of %s: %w", table, err)
	}
	return id, nil
}

// Update writes set to the rows matching where.
func (b *BaseSQLAdapter) Update(ctx context.Context, table string, set, where core.Assignments, types core.ParamTypes) (int64, error) {
	if b.DB == nil {
		return 0, core.ErrNotConnected
	}
	if len(set) == 0 {
		return 0, core.ErrNoColumns
	}
	query, args := BuildUpdate(b.dialect(), table, set, where, types)
	b.logger().Debug("update", "table", table, "sql", query)
	return b.execAffected(ctx, "update", table, query, args)
}

// Delete removes the rows matching where.
func (b *BaseSQLAdapter) Delete(ctx context.Context, table string, where core.Assignments, types core.ParamTypes) (int64, error) {
	if b.DB == nil {
		return 0, core.ErrNotConnected
	}
	query, args := BuildDelete(b.dialect(), table, where, types)
	b.logger().Debug("delete", "table", table, "sql", query)
	return b.execAffected(ctx, "delete from", table, query, args)
}

func (b *BaseSQLAdapter) execAffected(ctx context.Context, verb, table, query string, args []any) (int64, error) {
	res, err := b.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s %s: %w", verb, table, b.mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows of %s: %w", table, err)
	}
	return n, nil
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *dialect.Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// GetTableMetadataCommon provides a shared implementation of GetTableMetadata.
// Uses information_schema.columns with dialect-appropriate placeholders.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table string, d *dialect.Dialect) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, core.ErrNotConnected
	}

	schema, tableName := ParseQualifiedName(table, d)

	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, d.FormatPlaceholder(1), d.FormatPlaceholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: b.countRows(ctx, d, schema, tableName),
	}, nil
}

// countRows is best effort; a failure reports zero rows.
func (b *BaseSQLAdapter) countRows(ctx context.Context, d *dialect.Dialect, schema, table string) int64 {
	countQuery := "SELECT COUNT(*) FROM " + d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table) //nolint:gosec // quoted identifiers
	var rowCount int64
	if err := b.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		return 0
	}
	return rowCount
}

func (b *BaseSQLAdapter) dialect() *dialect.Dialect {
	if b.SQL == nil {
		return dialect.SQLite
	}
	return b.SQL
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b.Logger
}

func (b *BaseSQLAdapter) mapError(err error) error {
	if b.MapError == nil {
		return err
	}
	return b.MapError(err)
}
