// Package cli provides the command-line interface for leaprecord.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leaprecord/internal/cli/commands"
	"github.com/leapstack-labs/leaprecord/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		envFlag string
	)

	rootCmd := &cobra.Command{
		Use:   "leaprecord",
		Short: "leaprecord - entity records over SQL databases",
		Long: `leaprecord maps database rows to entities described by YAML
descriptors: fields, serialized fields and relations.

The CLI inspects descriptors, loads entities with their relations and
checks descriptors against the live database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, used, err := config.Load(cfgFile, envFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
			if used != "" {
				logger.Debug("using config file", slog.String("path", used))
			}
			cmd.SetContext(commands.WithEnv(cmd.Context(), commands.Env{Cfg: cfg, Logger: logger}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: leaprecord.yaml, searched upward)")
	flags.StringVarP(&envFlag, "env", "e", "", "Environment to use (e.g., dev, prod)")
	flags.String("schema-dir", "", "Directory of entity descriptor YAML files")
	flags.String("database", "", "Database file path (sqlite, duckdb)")
	flags.String("database-type", "", "Database type (sqlite|postgres|duckdb)")
	flags.String("codec", "", "Codec for serialized fields (json|yaml)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Verbose output (debug logging)")

	_ = rootCmd.RegisterFlagCompletionFunc("database-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("codec", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
