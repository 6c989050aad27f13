package storage

import (
	"fmt"

	"github.com/kbukum/stagekit/logger"
)

// Factory creates a Storage implementation from configuration.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a storage backend factory for the given
// provider name. Implementation packages call this in an init function
// to make themselves available to the New constructor.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// New creates a Storage implementation based on the given Config. The
// provider field determines which backend is used. Ensure the desired
// provider package has been imported (e.g.
// _ "github.com/kbukum/stagekit/storage/local") so its factory is
// registered.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	l := log.WithComponent("storage")

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing storage", logger.Fields("provider", cfg.Provider))
	return f(cfg, l)
}
