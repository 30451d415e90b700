// Package config loads and validates the paperkit configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Manuscript ManuscriptConfig `yaml:"manuscript"`
	Engines    EnginesConfig    `yaml:"engines"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Build      BuildConfig      `yaml:"build"`
	History    HistoryConfig    `yaml:"history"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ManuscriptConfig identifies the manuscript being built
type ManuscriptConfig struct {
	BaseName string `yaml:"base_name"` // File base name, e.g. "manuscript" for manuscript.tex
	Dir      string `yaml:"dir"`       // Working directory containing the sources
}

// EnginesConfig configures the external engines
type EnginesConfig struct {
	Typeset      string   `yaml:"typeset"`       // Typesetting engine binary, e.g. "pdflatex"
	TypesetArgs  []string `yaml:"typeset_args"`  // Extra arguments for every typeset pass
	Bibliography string   `yaml:"bibliography"`  // Bibliography engine binary, e.g. "bibtex"
	Passes       int      `yaml:"passes"`        // Total typeset passes (fixed convention, not a fixed point)
}

// ViewerConfig configures the detached document viewer
type ViewerConfig struct {
	Command string `yaml:"command"` // Viewer binary, e.g. "xdg-open" or "open"
}

// BuildConfig holds build behavior toggles
type BuildConfig struct {
	KeepIntermediates bool `yaml:"keep_intermediates"` // Skip the final intermediate cleanup
}

// HistoryConfig configures the local build history store
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite database path
}

// WatchConfig configures watch mode
type WatchConfig struct {
	Debounce      time.Duration `yaml:"debounce"`       // Quiet period after a change before rebuilding
	Schedule      string        `yaml:"schedule"`       // Optional cron expression for periodic rebuilds
	MetricsListen string        `yaml:"metrics_listen"` // Optional addr for a Prometheus /metrics listener
}

// Load loads configuration from the specified file. A missing file yields the
// defaults so the tool works out of the box in a manuscript directory.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist
		_ = err
	}

	cfg := Default()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.History.Enabled = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# paperkit configuration\n# Values support ${ENV_VAR} expansion; a .env file is loaded if present.\n")
	if err := os.WriteFile(configPath, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
