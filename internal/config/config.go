// Package config loads apictx settings from an optional apictx.yml plus
// APICTX_* environment overrides.
package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds everything the pipeline reads from configuration rather than
// flags.
type Config struct {
	// Workers bounds the parallel parse/extract stage.
	Workers int `mapstructure:"workers"`
	// GramLength is the substring length used by the approximate index.
	GramLength int `mapstructure:"gram_length"`
	// Ignore lists extra glob patterns excluded from discovery.
	Ignore []string `mapstructure:"ignore"`

	Visibility VisibilityConfig `mapstructure:"visibility"`
}

// VisibilityConfig tunes how symbol visibility is derived.
type VisibilityConfig struct {
	// RespectAll re-derives visibility from a module's __all__ list when the
	// module declares one. Off by default: the baseline rule is the leading
	// underscore alone.
	RespectAll bool `mapstructure:"respect_all"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workers:    4,
		GramLength: 3,
		Ignore:     nil,
		Visibility: VisibilityConfig{RespectAll: false},
	}
}

// Load reads configuration with priority env > apictx.yml in rootDir > defaults.
func Load(rootDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("apictx")
	v.SetConfigType("yaml")
	v.AddConfigPath(rootDir)

	v.SetEnvPrefix("APICTX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.BindEnv("workers")
	v.BindEnv("gram_length")
	v.BindEnv("visibility.respect_all")

	defaults := Default()
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("gram_length", defaults.GramLength)
	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("visibility.respect_all", defaults.Visibility.RespectAll)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "read config in %s", filepath.Clean(rootDir))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.Newf("workers must be >= 1, got %d", c.Workers)
	}
	if c.GramLength < 2 {
		return errors.Newf("gram_length must be >= 2, got %d", c.GramLength)
	}
	return nil
}
