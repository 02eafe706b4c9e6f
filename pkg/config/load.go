package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MAGICBOX_SERVER_LISTEN_ADDRESS.
const EnvPrefix = "MAGICBOX_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded over Default(), so omitted keys keep their defaults.
// An empty path yields the defaults. Environment variables are not applied;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and then applies
// MAGICBOX_SECTION_FIELD environment overrides, which always win over the
// file. A missing file is tolerated so that a deployment can be configured
// from the environment alone.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// envBinding ties one environment variable to the field it overrides.
type envBinding struct {
	name string
	set  func(val string) error
}

func stringVar(dst *string) func(string) error {
	return func(val string) error {
		*dst = val
		return nil
	}
}

func boolVar(dst *bool) func(string) error {
	return func(val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*dst = i
		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func envBindings(cfg *Config) []envBinding {
	return []envBinding{
		{"PARAMS_FILTERS", stringVar(&cfg.Params.Filters)},
		{"PARAMS_INCLUDE", stringVar(&cfg.Params.Include)},
		{"PARAMS_AGGREGATE", stringVar(&cfg.Params.Aggregate)},
		{"PARAMS_SORT", stringVar(&cfg.Params.Sort)},

		{"RELATIONS_DELIMITER", stringVar(&cfg.Relations.Delimiter)},
		{"RELATIONS_DEDUP", boolVar(&cfg.Relations.Dedup)},

		{"LIMITER_LINEARIZATION", stringVar(&cfg.Limiter.Linearization)},

		{"SCHEMA_PATH", stringVar(&cfg.Schema.Path)},
		{"SCHEMA_WATCH", boolVar(&cfg.Schema.Watch)},

		{"STORAGE_BACKEND", stringVar(&cfg.Storage.Backend)},
		{"STORAGE_SQLITE_PATH", stringVar(&cfg.Storage.SQLite.Path)},
		{"STORAGE_SQLITE_DRIVER", stringVar(&cfg.Storage.SQLite.Driver)},
		{"STORAGE_SQLITE_MAX_OPEN_CONNS", intVar(&cfg.Storage.SQLite.MaxOpenConns)},
		{"STORAGE_SQLITE_MAX_IDLE_CONNS", intVar(&cfg.Storage.SQLite.MaxIdleConns)},
		{"STORAGE_SQLITE_WAL_MODE", boolVar(&cfg.Storage.SQLite.WALMode)},
		{"STORAGE_SQLITE_BUSY_TIMEOUT", durationVar(&cfg.Storage.SQLite.BusyTimeout)},
		{"STORAGE_SQLITE_ANALYZE_SCHEDULE", stringVar(&cfg.Storage.SQLite.AnalyzeSchedule)},

		{"SERVER_LISTEN_ADDRESS", stringVar(&cfg.Server.ListenAddress)},
		{"SERVER_READ_TIMEOUT", durationVar(&cfg.Server.ReadTimeout)},
		{"SERVER_WRITE_TIMEOUT", durationVar(&cfg.Server.WriteTimeout)},
		{"SERVER_IDLE_TIMEOUT", durationVar(&cfg.Server.IdleTimeout)},
		{"SERVER_SHUTDOWN_TIMEOUT", durationVar(&cfg.Server.ShutdownTimeout)},
		{"SERVER_BASE_PATH", stringVar(&cfg.Server.BasePath)},

		{"TELEMETRY_LOGGING_LEVEL", stringVar(&cfg.Telemetry.Logging.Level)},
		{"TELEMETRY_LOGGING_FORMAT", stringVar(&cfg.Telemetry.Logging.Format)},
		{"TELEMETRY_LOGGING_ADD_SOURCE", boolVar(&cfg.Telemetry.Logging.AddSource)},
		{"TELEMETRY_METRICS_ENABLED", boolVar(&cfg.Telemetry.Metrics.Enabled)},
		{"TELEMETRY_METRICS_PATH", stringVar(&cfg.Telemetry.Metrics.Path)},
		{"TELEMETRY_METRICS_NAMESPACE", stringVar(&cfg.Telemetry.Metrics.Namespace)},
	}
}

// applyEnvOverrides applies MAGICBOX_* variables to cfg. Unlike empty
// variables, which are ignored, a value that does not parse is reported.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError
	for _, b := range envBindings(cfg) {
		name := EnvPrefix + b.name
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		if err := b.set(val); err != nil {
			errs = append(errs, FieldError{Field: name, Message: fmt.Sprintf("invalid value %q: %v", val, err)})
		}
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
