package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "manuscript", cfg.Manuscript.BaseName)
	require.Equal(t, ".", cfg.Manuscript.Dir)
	require.Equal(t, "pdflatex", cfg.Engines.Typeset)
	require.Equal(t, "bibtex", cfg.Engines.Bibliography)
	require.Equal(t, 3, cfg.Engines.Passes)
	require.NotEmpty(t, cfg.Viewer.Command)
	require.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "paperkit.yaml"))
	require.NoError(t, err)
	require.Equal(t, "manuscript", cfg.Manuscript.BaseName)
}

func TestLoad_FileOverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paperkit.yaml")
	content := []byte(`
manuscript:
  base_name: thesis
engines:
  typeset: xelatex
  passes: 4
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "thesis", cfg.Manuscript.BaseName)
	require.Equal(t, "xelatex", cfg.Engines.Typeset)
	require.Equal(t, 4, cfg.Engines.Passes)
	// Untouched sections keep defaults.
	require.Equal(t, "bibtex", cfg.Engines.Bibliography)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("PAPERKIT_TEST_BASE", "report")

	dir := t.TempDir()
	path := filepath.Join(dir, "paperkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manuscript:\n  base_name: ${PAPERKIT_TEST_BASE}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "report", cfg.Manuscript.BaseName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty base name", func(c *Config) { c.Manuscript.BaseName = "  " }, true},
		{"path separator in base name", func(c *Config) { c.Manuscript.BaseName = "a/b" }, true},
		{"zero passes rejected by Load path", func(c *Config) { c.Engines.Passes = -1 }, true},
		{"empty typeset engine", func(c *Config) { c.Engines.Typeset = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paperkit.yaml")

	require.NoError(t, Init(path, false))
	require.FileExists(t, path)

	// Refuses to overwrite without force.
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	// Generated file must load cleanly.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "manuscript", cfg.Manuscript.BaseName)
	require.True(t, cfg.History.Enabled)
}
