package config

import "time"

// Config is the root configuration structure for magicbox.
type Config struct {
	// Params names the query-string parameters read for each request part.
	Params ParamsConfig `yaml:"params"`

	// Relations controls how include chains are validated and glued.
	Relations RelationsConfig `yaml:"relations"`

	// Limiter controls how grouped filters are combined.
	Limiter LimiterConfig `yaml:"limiter"`

	// Schema locates the model definitions.
	Schema SchemaConfig `yaml:"schema"`

	// Storage selects and configures the storage backend.
	Storage StorageConfig `yaml:"storage"`

	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ParamsConfig names the top-level query parameters.
type ParamsConfig struct {
	// Filters is the parameter holding the filter tree.
	// Default: "filters"
	Filters string `yaml:"filters"`

	// Include is the parameter holding relationship chains to eager-load.
	// Default: "include"
	Include string `yaml:"include"`

	// Aggregate is the parameter holding the aggregate operation.
	// Default: "aggregate"
	Aggregate string `yaml:"aggregate"`

	// Sort is the parameter holding sort directions.
	// Default: "sort"
	Sort string `yaml:"sort"`
}

// RelationsConfig controls include handling.
type RelationsConfig struct {
	// Delimiter separates segments of a requested relationship chain.
	// Default: "."
	Delimiter string `yaml:"delimiter"`

	// Dedup drops repeated include paths.
	// Default: false
	Dedup bool `yaml:"dedup"`
}

// LimiterConfig controls filter construction.
type LimiterConfig struct {
	// Linearization folds grouped filters into one predicate.
	// Options: "legacy", "grouped"
	// Default: "legacy"
	Linearization string `yaml:"linearization"`
}

// SchemaConfig locates the model definitions.
type SchemaConfig struct {
	// Path is the YAML file declaring models and relations.
	// Default: "./schema.yaml"
	Path string `yaml:"path"`

	// Watch reloads the schema when the file changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	// Backend is the storage implementation.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/magicbox.db"
	Path string `yaml:"path"`

	// Driver is the database/sql driver name.
	// Options: "sqlite3" (cgo), "sqlite" (pure Go)
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// AnalyzeSchedule is a cron expression for refreshing planner
	// statistics. Empty disables it.
	// Default: ""
	AnalyzeSchedule string `yaml:"analyze_schedule"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// BasePath prefixes the model routes, e.g. "/api" serves "/api/person".
	// Default: "/api"
	BasePath string `yaml:"base_path"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "magicbox"
	Namespace string `yaml:"namespace"`
}
