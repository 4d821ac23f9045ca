package dialect

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leaprecord/pkg/core"
)

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// ErrDialectRequired is returned when a dialect is required but not provided.
var ErrDialectRequired = errors.New("dialect is required")

// Built-in dialects.
var (
	SQLite = New(core.DialectConfig{
		Name:          "sqlite",
		DefaultSchema: "main",
		Placeholder:   core.PlaceholderQuestion,
	})

	Postgres = New(core.DialectConfig{
		Name:          "postgres",
		DefaultSchema: "public",
		Placeholder:   core.PlaceholderDollar,
		Returning:     true,
	})

	DuckDB = New(core.DialectConfig{
		Name:          "duckdb",
		DefaultSchema: "main",
		Placeholder:   core.PlaceholderQuestion,
		Returning:     true,
	})
)

func init() {
	Register(SQLite)
	Register(Postgres)
	Register(DuckDB)
}

// Get returns a dialect by name.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Register registers a dialect in the global registry.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
