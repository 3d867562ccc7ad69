// Package config loads command configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every Outreach environment variable.
const EnvPrefix = "OUTREACH_"

// ParseEnv loads configuration from prefixed environment variables into target.
// Struct tags name the variable without the prefix, e.g. `env:"DB_PATH"` reads
// OUTREACH_DB_PATH.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvUnprefixed loads configuration using the struct tags verbatim.
func ParseEnvUnprefixed(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
