package assembly

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config tunes engine behaviour that is not part of any single schema's
// declarations. Defaults can be loaded via envdecode.
type Config struct {
	// DeprecationNotices controls the warning logged by deprecated
	// declaration entry points. ENV: ASSEMBLY_DEPRECATION_NOTICES
	DeprecationNotices bool `env:"ASSEMBLY_DEPRECATION_NOTICES,default=true"`
	// MaxConcurrency bounds ConstructAll. Zero or less means unbounded.
	// ENV: ASSEMBLY_MAX_CONCURRENCY
	MaxConcurrency int `env:"ASSEMBLY_MAX_CONCURRENCY,default=8"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{DeprecationNotices: true, MaxConcurrency: 8}
}

// ConfigFromEnv builds a Config using envdecode. Malformed values are an
// error rather than silently zeroed.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("assembly: config from env: %w", err)
	}
	return cfg, nil
}
