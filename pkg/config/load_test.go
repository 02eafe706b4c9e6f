package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
params:
  filters: "q"
relations:
  delimiter: "/"
  dedup: true
limiter:
  linearization: "grouped"
storage:
  backend: "memory"
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: "60s"
  base_path: "/v1"
telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Params.Filters != "q" {
		t.Errorf("expected filters param %q, got %q", "q", cfg.Params.Filters)
	}
	if cfg.Params.Include != DefaultIncludeParam {
		t.Errorf("expected include param to default to %q, got %q", DefaultIncludeParam, cfg.Params.Include)
	}
	if cfg.Relations.Delimiter != "/" || !cfg.Relations.Dedup {
		t.Errorf("unexpected relations config: %+v", cfg.Relations)
	}
	if cfg.Limiter.Linearization != "grouped" {
		t.Errorf("expected grouped linearization, got %q", cfg.Limiter.Linearization)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_TrueDefaultsCanBeDisabled(t *testing.T) {
	path := writeConfig(t, `
storage:
  sqlite:
    wal_mode: false
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.SQLite.WALMode {
		t.Error("expected wal_mode to stay disabled")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to stay disabled")
	}

	empty, err := LoadConfig(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("failed to load empty config: %v", err)
	}
	if !empty.Storage.SQLite.WALMode || !empty.Telemetry.Metrics.Enabled {
		t.Error("expected true defaults when keys are omitted")
	}
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected defaults, got error: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "invalid yaml",
			content: "server: [",
			wantMsg: "failed to parse",
		},
		{
			name:    "unknown linearization",
			content: "limiter:\n  linearization: flat\n",
			wantMsg: "limiter.linearization",
		},
		{
			name:    "relative base path",
			content: "server:\n  base_path: api\n",
			wantMsg: "server.base_path",
		},
		{
			name:    "bad cron",
			content: "storage:\n  sqlite:\n    analyze_schedule: \"every day\"\n",
			wantMsg: "storage.sqlite.analyze_schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
`)

	t.Setenv("MAGICBOX_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("MAGICBOX_LIMITER_LINEARIZATION", "grouped")
	t.Setenv("MAGICBOX_RELATIONS_DEDUP", "true")
	t.Setenv("MAGICBOX_STORAGE_SQLITE_BUSY_TIMEOUT", "2s")
	t.Setenv("MAGICBOX_STORAGE_SQLITE_MAX_OPEN_CONNS", "20")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Limiter.Linearization != "grouped" {
		t.Errorf("expected env linearization, got %q", cfg.Limiter.Linearization)
	}
	if !cfg.Relations.Dedup {
		t.Error("expected dedup from env")
	}
	if cfg.Storage.SQLite.BusyTimeout != 2*time.Second {
		t.Errorf("expected busy timeout 2s, got %v", cfg.Storage.SQLite.BusyTimeout)
	}
	if cfg.Storage.SQLite.MaxOpenConns != 20 {
		t.Errorf("expected 20 open conns, got %d", cfg.Storage.SQLite.MaxOpenConns)
	}
}

func TestLoadConfigWithEnvOverrides_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MAGICBOX_STORAGE_BACKEND", "memory")

	cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults with env, got %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Storage.Backend)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("MAGICBOX_SERVER_READ_TIMEOUT", "soon")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected error for unparsable duration")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Errors[0].Field != "MAGICBOX_SERVER_READ_TIMEOUT" {
		t.Errorf("unexpected field %q", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	t.Setenv("MAGICBOX_STORAGE_BACKEND", "postgres")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil || !strings.Contains(err.Error(), "after environment overrides") {
		t.Fatalf("expected post-override validation error, got %v", err)
	}
}
