package database

import (
	"os"
	"path/filepath"
	"strings"
)

// Driver names a storage backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// IsValid reports whether the driver is supported.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// ParseDriver resolves an explicit driver name, falling back to detection
// from the URL when the name is empty or "auto".
func ParseDriver(name, url string) Driver {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case DriverPostgres:
		return DriverPostgres
	case DriverSQLite:
		return DriverSQLite
	}
	return DetectDriver(url)
}

// DetectDriver guesses the driver from a connection string.
// An empty URL selects SQLite so the CLI works without configuration.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return DriverSQLite
	}
	return DriverPostgres
}

// DefaultSQLitePath returns ~/.cadence/cadence.db.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cadence", "cadence.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
