package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"empty filters param", func(c *Config) { c.Params.Filters = "" }, "params.filters"},
		{"bracketed param", func(c *Config) { c.Params.Sort = "sort[x]" }, "params.sort"},
		{"duplicate param", func(c *Config) { c.Params.Include = "filters" }, "params.include"},
		{"empty delimiter", func(c *Config) { c.Relations.Delimiter = "" }, "relations.delimiter"},
		{"separator delimiter", func(c *Config) { c.Relations.Delimiter = "__" }, "relations.delimiter"},
		{"linearization", func(c *Config) { c.Limiter.Linearization = "flat" }, "limiter.linearization"},
		{"schema path", func(c *Config) { c.Schema.Path = "" }, "schema.path"},
		{"backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"driver", func(c *Config) { c.Storage.SQLite.Driver = "pgx" }, "storage.sqlite.driver"},
		{"idle above open", func(c *Config) { c.Storage.SQLite.MaxIdleConns = 50 }, "storage.sqlite.max_idle_conns"},
		{"negative busy timeout", func(c *Config) { c.Storage.SQLite.BusyTimeout = -time.Second }, "storage.sqlite.busy_timeout"},
		{"listen address", func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address"},
		{"negative shutdown", func(c *Config) { c.Server.ShutdownTimeout = -1 }, "server.shutdown_timeout"},
		{"log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, verr)
			}
		})
	}
}

func TestValidate_MemoryBackendSkipsSQLite(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "memory"
	cfg.Storage.SQLite.Driver = "bogus"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected sqlite settings to be ignored, got %v", err)
	}
}

func TestValidate_LinearizationCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Limiter.Linearization = "Grouped"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected mixed case to validate, got %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}}
	if !strings.Contains(multi.Error(), "2 errors") || !strings.Contains(multi.Error(), "  - b: y") {
		t.Errorf("unexpected message %q", multi.Error())
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)
	if *cfg != first {
		t.Error("expected ApplyDefaults to be idempotent")
	}
	if cfg.Storage.SQLite.WALMode {
		t.Error("ApplyDefaults must not force booleans on")
	}
}
