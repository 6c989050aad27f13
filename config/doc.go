// Package config loads pipeline configuration from YAML files,
// .env files, and STAGEKIT_-prefixed environment variables,
// with later sources taking precedence.
package config
