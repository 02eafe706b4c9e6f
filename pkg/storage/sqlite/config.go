package sqlite

import (
	"fmt"
	"time"
)

// Supported database/sql driver names.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// Config contains configuration for the SQLite storage backend.
type Config struct {
	// Path is the database file path. ":memory:" opens a private in-memory
	// database.
	Path string

	// Driver selects the database/sql driver: DriverCGO or DriverPureGo.
	// Default: DriverCGO
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// AnalyzeSchedule is a cron expression for running ANALYZE. Empty
	// disables the maintainer.
	AnalyzeSchedule string
}

// DefaultConfig returns the default SQLite configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:         "data/magicbox.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverCGO, DriverPureGo:
	default:
		return fmt.Errorf("unsupported sqlite driver %q", c.Driver)
	}
	if c.Path == "" {
		return fmt.Errorf("sqlite path is required")
	}
	return nil
}
