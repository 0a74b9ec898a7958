package dbpkg

import (
	"tangled.org/simmod.net/dbpkg/dedup"
)

type config struct {
	engineConfig *dedup.Config
}

func defaultConfig(baseDir string) *config {
	return &config{
		engineConfig: dedup.DefaultConfig(baseDir),
	}
}

// Option configures the Engine
type Option func(*config)

// WithCatalog replaces the built-in pack catalog.
func WithCatalog(catalog *Catalog) Option {
	return func(c *config) {
		c.engineConfig.Catalog = catalog
	}
}

// WithLogger sets the transcript logger.
func WithLogger(logger Logger) Option {
	return func(c *config) {
		c.engineConfig.Logger = logger
	}
}

// WithProgress installs a progress callback invoked per processed file.
func WithProgress(fn func(done, total int)) Option {
	return func(c *config) {
		c.engineConfig.Progress = fn
	}
}
