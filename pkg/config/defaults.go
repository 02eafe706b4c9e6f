package config

import "time"

// Default values for configuration fields.
const (
	// Params defaults
	DefaultFiltersParam   = "filters"
	DefaultIncludeParam   = "include"
	DefaultAggregateParam = "aggregate"
	DefaultSortParam      = "sort"

	// Relations defaults
	DefaultRelationDelimiter = "."
	DefaultRelationDedup     = false

	// Limiter defaults
	DefaultLinearization = "legacy"

	// Schema defaults
	DefaultSchemaPath  = "./schema.yaml"
	DefaultSchemaWatch = false

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultSQLitePath         = "data/magicbox.db"
	DefaultSQLiteDriver       = "sqlite3"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultBasePath        = "/api"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultPrometheusPath   = "/metrics"
	DefaultMetricsNamespace = "magicbox"
)

// Default returns a configuration with every field set to its default.
// Loading starts from this value so that booleans defaulting to true can
// still be switched off in the file.
func Default() *Config {
	cfg := &Config{
		Relations: RelationsConfig{Dedup: DefaultRelationDedup},
		Schema:    SchemaConfig{Watch: DefaultSchemaWatch},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{WALMode: DefaultSQLiteWALMode},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Params defaults
	if cfg.Params.Filters == "" {
		cfg.Params.Filters = DefaultFiltersParam
	}
	if cfg.Params.Include == "" {
		cfg.Params.Include = DefaultIncludeParam
	}
	if cfg.Params.Aggregate == "" {
		cfg.Params.Aggregate = DefaultAggregateParam
	}
	if cfg.Params.Sort == "" {
		cfg.Params.Sort = DefaultSortParam
	}

	if cfg.Relations.Delimiter == "" {
		cfg.Relations.Delimiter = DefaultRelationDelimiter
	}
	if cfg.Limiter.Linearization == "" {
		cfg.Limiter.Linearization = DefaultLinearization
	}
	if cfg.Schema.Path == "" {
		cfg.Schema.Path = DefaultSchemaPath
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.BasePath == "" {
		cfg.Server.BasePath = DefaultBasePath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
