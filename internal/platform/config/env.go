package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envPrefix namespaces every configuration variable, so the server can
// share an environment with other processes without tag repetition.
const envPrefix = "GAVEL_"

// ParseEnv fills target from GAVEL_-prefixed environment variables
// declared by its `env` tags. Unset variables fall back to `envDefault`
// tags, so a bare environment still yields a runnable configuration.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
