package config

import (
	"github.com/caarlos0/env/v11"
)

// parseEnv overlays values from environment variables (see the env tags on
// Config). Unset variables leave the current value untouched. A nil environ
// means the process environment.
func parseEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	return env.ParseWithOptions(cfg, opts)
}
