// Package config loads leaprecord configuration from defaults, the
// leaprecord.yaml file, LEAPRECORD_ environment variables and CLI flags.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/adapter"
	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/dialect"
)

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	Type string `koanf:"type"` // sqlite, postgres, duckdb

	// File-based databases (SQLite, DuckDB)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Options are driver options (pool sizes, pragmas).
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g. DuckDB extensions).
	Params map[string]any `koanf:"params"`
}

// ApplyDefaults fills the schema from the dialect and the default port.
func (d *DatabaseConfig) ApplyDefaults() {
	if d == nil {
		return
	}
	if d.Schema == "" {
		d.Schema = DefaultSchemaForType(d.Type)
	}
	if strings.EqualFold(d.Type, "postgres") && d.Port == 0 {
		d.Port = 5432
	}
}

// Validate checks that the database type has a registered adapter.
func (d *DatabaseConfig) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("database type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(d.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      d.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// AdapterConfig converts the settings to the adapter connection config.
func (d *DatabaseConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     strings.ToLower(d.Type),
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.User,
		Password: d.Password,
		Schema:   d.Schema,
		Options:  d.Options,
		Params:   d.Params,
	}
}

// DefaultSchemaForType returns the default schema of a database type,
// "main" when the dialect is unknown.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// Config holds all configuration options.
type Config struct {
	SchemaDir    string               `koanf:"schema_dir"`
	Codec        string               `koanf:"codec"`
	LogLevel     string               `koanf:"log_level"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	Database     *DatabaseConfig      `koanf:"database"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	SchemaDir string          `koanf:"schema_dir"`
	Database  *DatabaseConfig `koanf:"database"`
}

// Level parses LogLevel. Verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return lvl
}
