// Package commands implements the leaprecord subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/leaprecord/internal/config"
	"github.com/leapstack-labs/leaprecord/pkg/adapter"
	"github.com/leapstack-labs/leaprecord/pkg/codec"
	"github.com/leapstack-labs/leaprecord/pkg/record"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
	"github.com/spf13/cobra"
)

// envKey is used to store the loaded Env in the command context.
type envKey struct{}

// Env is what the root command hands to every subcommand.
type Env struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// WithEnv returns a context carrying env.
func WithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// GetEnv retrieves the Env from the command context. Without one, the
// logger discards and the config is nil.
func GetEnv(ctx context.Context) Env {
	if env, ok := ctx.Value(envKey{}).(Env); ok {
		return env
	}
	return Env{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// CommandContext holds the dependencies of a command that talks to the
// database.
type CommandContext struct {
	Cfg         *config.Config
	Logger      *slog.Logger
	Descriptors []*schema.Descriptor
	Registry    *record.Registry
	DB          adapter.Adapter
}

// loadDescriptors reads every entity descriptor under the schema directory.
func loadDescriptors(cfg *config.Config) ([]*schema.Descriptor, error) {
	descs, err := schema.LoadDir(cfg.SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema from %s: %w", cfg.SchemaDir, err)
	}
	if len(descs) == 0 {
		return nil, fmt.Errorf("no entity descriptors found in %s\nHint: set schema_dir in leaprecord.yaml or use --schema-dir", cfg.SchemaDir)
	}
	return descs, nil
}

// NewCommandContext loads the descriptors, connects to the database and
// registers every model. The returned cleanup closes the connection.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	env := GetEnv(cmd.Context())
	if env.Cfg == nil {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}

	descs, err := loadDescriptors(env.Cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := codec.Get(env.Cfg.Codec)
	if err != nil {
		return nil, nil, err
	}

	db, err := adapter.Open(cmd.Context(), env.Cfg.Database.AdapterConfig(), env.Logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = db.Close() }

	reg := record.NewRegistry(db, env.Logger)
	if _, err := reg.RegisterAll(descs, record.WithCodec(c)); err != nil {
		cleanup()
		return nil, nil, err
	}

	return &CommandContext{
		Cfg:         env.Cfg,
		Logger:      env.Logger,
		Descriptors: descs,
		Registry:    reg,
		DB:          db,
	}, cleanup, nil
}
