package storage

import (
	"errors"
	"fmt"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "/tmp/storage"
	DefaultRegion   = "us-east-1"
)

// Config holds storage configuration.
type Config struct {
	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Provider == ProviderLocal && c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Provider == ProviderS3 && c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the configuration for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		if c.Bucket == "" {
			return errors.New("storage: bucket is required for s3 provider")
		}
	default:
		return fmt.Errorf("storage: unknown provider %q", c.Provider)
	}
	return nil
}
