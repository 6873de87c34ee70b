package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and configures the mirror database.
type Config struct {
	// Driver is detected from URL when empty.
	Driver Driver

	// URL is a PostgreSQL connection string, or a sqlite:// URL.
	URL string

	// SQLitePath is the database file used by the SQLite driver.
	// Defaults to ~/.bear-review/mirror.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool size.
	MaxConns int
}

// Opener opens a connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]Opener{}

// Register makes a driver available to NewConnection. Driver packages call
// it from init, so importing them for side effects is enough.
func Register(driver Driver, open Opener) {
	openers[driver] = open
}

// NewConnection opens the database described by cfg.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}
	if driver == DriverSQLite && cfg.SQLitePath == "" && cfg.URL != "" {
		cfg.SQLitePath = SQLitePath(cfg.URL)
	}

	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns the default mirror file location.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".bear-review", "mirror.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
