package config

import (
	"strings"

	"git.home.luguber.info/inful/paperkit/internal/errors"
)

// Validate checks the configuration for values that would break a build.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Manuscript.BaseName) == "" {
		return errors.ValidationFailed("manuscript.base_name", "must not be empty")
	}
	if strings.ContainsAny(c.Manuscript.BaseName, `/\`) {
		return errors.ValidationFailed("manuscript.base_name", "must not contain path separators")
	}
	if c.Engines.Passes < 1 {
		return errors.ValidationFailed("engines.passes", "must be at least 1")
	}
	if strings.TrimSpace(c.Engines.Typeset) == "" {
		return errors.ValidationFailed("engines.typeset", "must not be empty")
	}
	if c.Watch.Debounce < 0 {
		return errors.ValidationFailed("watch.debounce", "must not be negative")
	}
	return nil
}
