package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/adapter"
	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			Logger:   logger,
			SQL:      dialect.SQLite,
			MapError: mapError,
		},
	}
}

// Dialect returns the SQLite dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return dialect.SQLite
}

// Connect opens the database at cfg.Path. An empty path or ":memory:" opens
// a private in-memory database held on a single connection.
//
// Foreign keys are enforced. Options are passed as _pragma parameters, e.g.
// {"busy_timeout": "5000", "journal_mode": "wal"}.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	dsn, inMemory := buildDSN(cfg)

	a.Logger.Debug("connecting to sqlite", slog.String("path", cfg.Path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildDSN renders a file: URI carrying one _pragma parameter per option.
func buildDSN(cfg core.AdapterConfig) (dsn string, inMemory bool) {
	path := cfg.Path
	inMemory = path == "" || path == ":memory:"
	if inMemory {
		path = ":memory:"
	}

	pragmas := []string{"foreign_keys(1)"}
	for _, key := range sortedKeys(cfg.Options) {
		pragmas = append(pragmas, fmt.Sprintf("%s(%s)", key, cfg.Options[key]))
	}

	q := make([]string, len(pragmas))
	for i, p := range pragmas {
		q[i] = "_pragma=" + url.QueryEscape(p)
	}
	return "file:" + path + "?" + strings.Join(q, "&"), inMemory
}

// GetTableMetadata reads column information with PRAGMA table_info.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	if a.DB == nil {
		return nil, core.ErrNotConnected
	}
	d := a.Dialect()
	schema, name := adapter.ParseQualifiedName(table, d)

	rows, err := a.DB.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?, ?)`, name, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			cid      int
			col      core.Column
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0 && pk == 0
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var rowCount int64
	countQuery := "SELECT COUNT(*) FROM " + d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(name) //nolint:gosec // quoted identifiers
	if err := a.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		rowCount = 0
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     name,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// mapError translates SQLite constraint errors to core sentinels.
func mapError(err error) error {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	code := sqliteErr.Code()
	unique := code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
	if unique {
		return fmt.Errorf("%w: %s", core.ErrUniqueViolation, sqliteErr.Error())
	}
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
