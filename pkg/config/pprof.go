package config

import (
	"fmt"
	"net"
	"strings"
)

// defaultPprofAddr keeps the profiling endpoints off public interfaces unless configured otherwise.
const defaultPprofAddr = "localhost:6060"

// PProfConfig controls the side listener serving net/http/pprof for the catalog process.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// String returns a string representation of the pprof configuration.
func (c *PProfConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- PProf ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	return b.String()
}

// Validate fills the loopback default address and rejects anything that is not host:port.
func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		c.Addr = defaultPprofAddr
	}
	if _, port, err := net.SplitHostPort(c.Addr); err != nil || port == "" {
		return fmt.Errorf("invalid pprof address %q: must be host:port", c.Addr)
	}
	return nil
}
