package cmdutil

import (
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// EnvConfig carries the SIFT_* environment overrides for a run. A .env
// file in the working directory is folded into the environment first, so
// sink credentials can stay out of shell history and config files.
type EnvConfig struct {
	Source    string `env:"SIFT_SOURCE"`
	SinkURL   string `env:"SIFT_SINK_URL"`
	SinkTable string `env:"SIFT_SINK_TABLE"`
}

func LoadEnv() (EnvConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return EnvConfig{}, errors.Wrap(err, "loading .env")
	}
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, errors.Wrap(err, "parsing environment")
	}
	return cfg, nil
}
