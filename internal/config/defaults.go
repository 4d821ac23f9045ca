package config

// Default configuration values.
const (
	DefaultSchemaDir    = "schema"
	DefaultCodec        = "json"
	DefaultLogLevel     = "warn"
	DefaultEnv          = "dev"
	DefaultDatabaseType = "sqlite"
	DefaultDatabasePath = "leaprecord.db"
)

// File names searched for, in order.
const (
	ConfigFileName    = "leaprecord.yaml"
	ConfigFileNameAlt = "leaprecord.yml"
	DotEnvFileName    = ".env"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "LEAPRECORD_"
