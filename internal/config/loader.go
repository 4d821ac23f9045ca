package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names to config keys where kebab-to-snake is not enough.
var flagKeys = map[string]string{
	"env":           "environment",
	"database-type": "database.type",
	"database":      "database.path",
}

// Load loads configuration from defaults, the config file, a .env file in the
// project root, environment variables and flags. Precedence (highest to
// lowest): flags > env vars > .env > config file > defaults.
//
// cfgFile may be empty, in which case leaprecord.yaml (or .yml) is searched
// for upward from the working directory. envOverride selects an entry of
// environments; empty means the configured environment.
func Load(cfgFile, envOverride string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"schema_dir":    DefaultSchemaDir,
		"codec":         DefaultCodec,
		"log_level":     DefaultLogLevel,
		"environment":   DefaultEnv,
		"verbose":       false,
		"database.type": DefaultDatabaseType,
		"database.path": DefaultDatabasePath,
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	projectRoot := ""
	if cfgFile == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		if root := FindProjectRoot(cwd); root != "" {
			projectRoot = root
			cfgFile = findConfigFile(root)
		} else {
			projectRoot = cwd
		}
	} else if abs, err := filepath.Abs(cfgFile); err == nil {
		projectRoot = filepath.Dir(abs)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. .env file. It never overrides the process environment.
	dotenv, err := readDotEnv(projectRoot)
	if err != nil {
		return nil, "", err
	}
	fromDotEnv := make(map[string]any)
	for name, val := range dotenv {
		if strings.HasPrefix(name, EnvPrefix) {
			fromDotEnv[envKey(name)] = val
		}
	}
	if err := k.Load(confmap.Provider(fromDotEnv, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load %s: %w", DotEnvFileName, err)
	}

	// 4. Environment variables: LEAPRECORD_LOG_LEVEL -> log_level,
	// LEAPRECORD_DATABASE__PASSWORD -> database.password
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags, only the ones explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	envName := cfg.Environment
	if envOverride != "" {
		envName = envOverride
	}
	if envCfg, ok := cfg.Environments[envName]; ok {
		if envCfg.SchemaDir != "" {
			cfg.SchemaDir = envCfg.SchemaDir
		}
		cfg.Database = MergeDatabaseConfig(cfg.Database, envCfg.Database)
	} else if envOverride != "" {
		return nil, "", fmt.Errorf("environment %q not found in config", envOverride)
	}

	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{Type: DefaultDatabaseType, Path: DefaultDatabasePath}
	}
	cfg.Database.ApplyDefaults()
	expandDatabaseEnvVars(cfg.Database, dotenv)

	cfg.SchemaDir = resolvePathRelativeTo(cfg.SchemaDir, projectRoot)
	if cfg.Database.Path != ":memory:" {
		cfg.Database.Path = resolvePathRelativeTo(cfg.Database.Path, projectRoot)
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid database configuration: %w", err)
	}
	return &cfg, cfgFile, nil
}

// envKey maps an environment variable name to a config key.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// readDotEnv parses the .env file in dir. A missing file yields no values.
func readDotEnv(dir string) (map[string]string, error) {
	if dir == "" {
		return nil, nil
	}
	path := filepath.Join(dir, DotEnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return vals, nil
}

// findConfigFile returns the config file in dir, or "" when there is none.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the nearest directory holding a
// config file. Returns "" if none is found within maxUpwardSearchLevels.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns from the environment, then from
// fallback. Unset variables are left as is.
func expandEnvVars(s string, fallback map[string]string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val := os.Getenv(name); val != "" {
			return val
		}
		if val := fallback[name]; val != "" {
			return val
		}
		return match
	})
}

func expandDatabaseEnvVars(d *DatabaseConfig, fallback map[string]string) {
	d.Password = expandEnvVars(d.Password, fallback)
	d.User = expandEnvVars(d.User, fallback)
	d.Host = expandEnvVars(d.Host, fallback)
	d.Database = expandEnvVars(d.Database, fallback)
	d.Path = expandEnvVars(d.Path, fallback)
}

// MergeDatabaseConfig merges two database configs, with override taking precedence.
func MergeDatabaseConfig(base, override *DatabaseConfig) *DatabaseConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	for k, v := range base.Options {
		merged.Options[k] = v
	}
	for k, v := range base.Params {
		merged.Params[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
		// A different database type does not inherit file or network settings.
		if !strings.EqualFold(override.Type, base.Type) {
			merged.Path, merged.Host, merged.Port, merged.Schema = "", "", 0, ""
		}
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}
	for k, v := range override.Params {
		merged.Params[k] = v
	}
	return &merged
}
