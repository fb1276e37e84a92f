package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig describes how to reach the relational store.
// URL may contain the {DataDirectory} placeholder, resolved against DataDirectory at startup.
type DatabaseConfig struct {
	Driver        string        `koanf:"driver"`
	URL           string        `koanf:"url"`
	DataDirectory string        `koanf:"datadirectory"`
	Timeout       time.Duration `koanf:"timeout"`
	Migrate       bool          `koanf:"migrate"`
}

const defaultDatabaseTimeout = 10 * time.Second

func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	switch c.Driver {
	case DriverPostgres:
		if !isValidPostgresURL(c.URL) {
			return fmt.Errorf("database URL must start with 'postgres://': %s", MaskURL(c.URL))
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Driver)
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultDatabaseTimeout
	}
	return nil
}

// String returns a string representation of the database configuration with credentials masked.
func (c *DatabaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  url: %s\n", MaskURL(c.URL)))
	b.WriteString(fmt.Sprintf("  datadirectory: %s\n", c.DataDirectory))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  migrate: %t\n", c.Migrate))
	return b.String()
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// MaskURL hides the user info part of a connection URL.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	// Mask the URL by replacing the username and password with "****"
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	if !strings.Contains(url, "://") {
		// file based DSN, nothing secret in it
		return url
	}
	return "****"
}
