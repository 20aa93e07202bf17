package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the CLI host configuration, read from the environment. Library
// behavior is still driven by the option structs in the library package;
// this only covers what the host needs to wire them up.
type Config struct {
	// CatalogPath is the JSON catalog file the commands read and write.
	CatalogPath string `env:"CRATESCAN_CATALOG" env-default:"catalog.json"`

	// SearchPaths are the roots relocation searches enumerate.
	SearchPaths []string `env:"CRATESCAN_SEARCH_PATHS" env-separator:":"`

	SearchDepth           int     `env:"CRATESCAN_SEARCH_DEPTH" env-default:"3"`
	MatchThreshold        float64 `env:"CRATESCAN_MATCH_THRESHOLD" env-default:"0.7"`
	IncludeSubdirectories bool    `env:"CRATESCAN_RECURSIVE" env-default:"true"`

	// Strategy is the duplicate resolution strategy.
	Strategy string `env:"CRATESCAN_STRATEGY" env-default:"keep-highest-quality"`

	// PreferredPaths orders path substrings for keep-preferred-path.
	PreferredPaths []string `env:"CRATESCAN_PREFERRED_PATHS" env-separator:":"`

	// PersistFingerprints saves/loads the fingerprint cache across runs.
	PersistFingerprints bool `env:"CRATESCAN_PERSIST_FINGERPRINTS" env-default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}
