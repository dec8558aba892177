package config

import (
	"os"

	"github.com/yndnr/rostervault/internal/infra/confloader"
)

// Load builds the configuration from defaults, the optional file at path,
// legacy environment names and ROSTERVAULT_ variables, then verifies it.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()

	opts := []confloader.Option{
		confloader.WithMap(LegacyEnv(os.LookupEnv)),
	}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := Verify(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
