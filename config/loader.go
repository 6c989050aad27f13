package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct .env file path (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// configSearchPaths are tried in order when no explicit config file is given.
var configSearchPaths = []string{
	"./stagekit.yml",
	"./config/stagekit.yml",
	"./config.yml",
	"./config/config.yml",
}

// envSearchPaths are tried in order when no explicit .env file is given.
var envSearchPaths = []string{
	"./.env",
	"./config/.env",
}

// Load reads configuration from a YAML file, a .env file, and the process
// environment, in that order of increasing precedence, then applies
// defaults and validates the result.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	if lc.ConfigFile == "" {
		lc.ConfigFile = firstExisting(lc.FileSystem, configSearchPaths)
	}
	if lc.EnvFile == "" {
		lc.EnvFile = firstExisting(lc.FileSystem, envSearchPaths)
	}

	v := viper.New()

	// 1. YAML config file is the base layer.
	if lc.ConfigFile != "" && lc.FileSystem.Exists(lc.ConfigFile) {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", lc.ConfigFile, err)
		}
	}

	// 2. Environment variables override the file.
	v.AutomaticEnv()
	autoBindEnvVars(v)

	// 3. A .env file contributes variables not already in the environment.
	if lc.EnvFile != "" && lc.FileSystem.Exists(lc.EnvFile) {
		if err := lc.FileSystem.LoadEnv(lc.EnvFile); err != nil {
			return nil, fmt.Errorf("config: failed to load %s: %w", lc.EnvFile, err)
		}
		autoBindEnvVars(v)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// envPrefix scopes which environment variables are bound into viper.
const envPrefix = "STAGEKIT_"

// autoBindEnvVars binds STAGEKIT_-prefixed environment variables to viper
// by converting UPPER_CASE_WITH_UNDERSCORES into nested key variants.
// Examples:
//
//	STAGEKIT_CACHE_DIR       -> cache_dir
//	STAGEKIT_LOGGING_LEVEL   -> logging.level, logging_level
//	STAGEKIT_STORAGE_BASE_PATH -> storage.base_path, storage.base.path, ...
func autoBindEnvVars(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}

		key := strings.TrimPrefix(pair[0], envPrefix)
		value := pair[1]

		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants creates the possible nested key spellings for an
// environment variable name, since underscores are ambiguous between
// nesting separators and in-key underscores.
func envKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")

	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}

	// Progressive nesting: each split point between dotted prefix and
	// underscored suffix.
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}

	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
