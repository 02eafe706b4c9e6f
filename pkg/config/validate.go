package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateParams(&cfg.Params)...)
	errs = append(errs, validateRelations(&cfg.Relations)...)
	errs = append(errs, validateLimiter(&cfg.Limiter)...)
	errs = append(errs, validateSchema(&cfg.Schema)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateParams(cfg *ParamsConfig) []FieldError {
	var errs []FieldError

	names := map[string]string{
		"params.filters":   cfg.Filters,
		"params.include":   cfg.Include,
		"params.aggregate": cfg.Aggregate,
		"params.sort":      cfg.Sort,
	}
	seen := map[string]string{}
	for _, field := range []string{"params.filters", "params.include", "params.aggregate", "params.sort"} {
		name := names[field]
		if name == "" {
			errs = append(errs, FieldError{Field: field, Message: "parameter name is required"})
			continue
		}
		if strings.ContainsAny(name, "[]&=") {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("parameter name %q must not contain brackets, '&' or '='", name)})
		}
		if other, dup := seen[name]; dup {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("parameter name %q is already used by %s", name, other)})
		}
		seen[name] = field
	}

	return errs
}

func validateRelations(cfg *RelationsConfig) []FieldError {
	var errs []FieldError

	if cfg.Delimiter == "" {
		errs = append(errs, FieldError{
			Field:   "relations.delimiter",
			Message: "delimiter is required",
		})
	} else if strings.Contains(cfg.Delimiter, "__") {
		errs = append(errs, FieldError{
			Field:   "relations.delimiter",
			Message: "delimiter must not contain the lookup separator \"__\"",
		})
	}

	return errs
}

func validateLimiter(cfg *LimiterConfig) []FieldError {
	switch strings.ToLower(cfg.Linearization) {
	case "legacy", "grouped":
		return nil
	default:
		return []FieldError{{
			Field:   "limiter.linearization",
			Message: fmt.Sprintf("invalid linearization %q: must be 'legacy' or 'grouped'", cfg.Linearization),
		}}
	}
}

func validateSchema(cfg *SchemaConfig) []FieldError {
	if cfg.Path == "" {
		return []FieldError{{Field: "schema.path", Message: "schema path is required"}}
	}
	return nil
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
		return nil
	case "sqlite":
	default:
		return []FieldError{{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		}}
	}

	if cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{Field: "storage.sqlite.path", Message: "sqlite path is required"})
	}
	if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'sqlite'", cfg.SQLite.Driver),
		})
	}
	if cfg.SQLite.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "storage.sqlite.max_open_conns", Message: "must be non-negative"})
	}
	if cfg.SQLite.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "storage.sqlite.max_idle_conns", Message: "must be non-negative"})
	}
	if cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns && cfg.SQLite.MaxOpenConns > 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_idle_conns",
			Message: "max idle connections cannot exceed max open connections",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "storage.sqlite.busy_timeout", Message: "busy timeout must be positive"})
	}
	if cfg.SQLite.AnalyzeSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SQLite.AnalyzeSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.analyze_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}
	if !strings.HasPrefix(cfg.BasePath, "/") {
		errs = append(errs, FieldError{
			Field:   "server.base_path",
			Message: fmt.Sprintf("base path %q must start with '/'", cfg.BasePath),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: fmt.Sprintf("metrics path %q must start with '/'", cfg.Metrics.Path),
		})
	}

	return errs
}
