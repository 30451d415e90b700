package config

import (
	"runtime"
	"time"
)

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero-valued fields after unmarshal.
func (c *Config) applyDefaults() {
	if c.Manuscript.BaseName == "" {
		c.Manuscript.BaseName = "manuscript"
	}
	if c.Manuscript.Dir == "" {
		c.Manuscript.Dir = "."
	}
	if c.Engines.Typeset == "" {
		c.Engines.Typeset = "pdflatex"
	}
	if len(c.Engines.TypesetArgs) == 0 {
		c.Engines.TypesetArgs = []string{"-interaction=nonstopmode", "-halt-on-error"}
	}
	if c.Engines.Bibliography == "" {
		c.Engines.Bibliography = "bibtex"
	}
	if c.Engines.Passes == 0 {
		c.Engines.Passes = 3
	}
	if c.Viewer.Command == "" {
		c.Viewer.Command = defaultViewer()
	}
	if c.History.Path == "" {
		c.History.Path = ".paperkit/history.db"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
}

// defaultViewer picks the platform convention for opening documents.
func defaultViewer() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "cmd /c start"
	default:
		return "xdg-open"
	}
}
