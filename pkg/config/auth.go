package config

import (
	"fmt"
	"strings"
)

const defaultAuthScheme = "Basic"
const defaultAuthRealm = "catalog"

// AuthConfig configures the authorization gate.
type AuthConfig struct {
	Scheme string `koanf:"scheme"`
	Realm  string `koanf:"realm"`
}

// String returns a string representation of the auth configuration.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  scheme: %s\n", c.Scheme))
	b.WriteString(fmt.Sprintf("  realm: %s\n", c.Realm))
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if c.Scheme == "" {
		c.Scheme = defaultAuthScheme
	}
	if strings.ContainsAny(c.Scheme, " \t") {
		return fmt.Errorf("auth scheme must be a single token: %q", c.Scheme)
	}
	if c.Realm == "" {
		c.Realm = defaultAuthRealm
	}
	return nil
}
