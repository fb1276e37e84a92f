// Package config holds the catalog service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// BackendsConfig selects the store and authorizer implementations by registry key.
// Both default to the database driver.
type BackendsConfig struct {
	Store      string `koanf:"store"`
	Authorizer string `koanf:"authorizer"`
}

type Config struct {
	HTTPServer config.HTTPConfig           `koanf:"server"`
	Database   config.DatabaseConfig       `koanf:"database"`
	Auth       config.AuthConfig           `koanf:"auth"`
	Backends   BackendsConfig              `koanf:"backends"`
	Breaker    config.CircuitBreakerConfig `koanf:"circuitbreaker"`
	Log        config.LogConfig            `koanf:"log"`
	PProf      config.PProfConfig          `koanf:"pprof"`
	Shutdown   config.ShutdownConfig       `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig      `koanf:"telemetry"`
	Metrics    config.MetricsConfig        `koanf:"metrics"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.Auth.String())
	b.WriteString("\n--- Backends ---\n")
	b.WriteString(fmt.Sprintf("  store: %s\n", c.Backends.Store))
	b.WriteString(fmt.Sprintf("  authorizer: %s\n", c.Backends.Authorizer))
	b.WriteString(c.Breaker.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Metrics.String())
	return b.String()
}

// Validate checks if the configuration values are valid and fills in defaults.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.Backends.Store == "" {
		c.Backends.Store = c.Database.Driver
	}
	if c.Backends.Authorizer == "" {
		c.Backends.Authorizer = c.Database.Driver
	}
	if err := c.Breaker.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}
