package config

import (
	"github.com/kbukum/stagekit/logger"
	"github.com/kbukum/stagekit/storage"
	"github.com/kbukum/stagekit/validation"
)

// Config is the top-level configuration for a pipeline run.
type Config struct {
	// CacheDir is the directory holding per-stage artifact files.
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir" validate:"required"`

	// MaxConcurrency bounds async stage workers when no explicit limit is given.
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency" validate:"min=1"`

	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Storage       storage.Config      `yaml:"storage" mapstructure:"storage"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ObservabilityConfig controls optional tracing and metrics export.
type ObservabilityConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure    bool   `yaml:"insecure" mapstructure:"insecure"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.CacheDir == "" {
		c.CacheDir = ".stagekit"
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 4
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "stagekit"
	}
	c.Logging.ApplyDefaults()
	c.Storage.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Storage.Validate()
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}
