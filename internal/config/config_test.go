package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.Model.Provider)
	assert.Equal(t, 6, cfg.RowStore.StatusColumn)
	assert.Equal(t, "structured", cfg.Intent.Strategy)
	assert.Equal(t, "Pilots", cfg.RowStore.PilotsTable)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opscommand.yaml")
	yml := `
model:
  provider: gemini
  model: gemini-2.0-flash
row_store:
  backend: memory
  status_column: 5
intent:
  strategy: heuristic
session:
  ttl: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("ROSTER_STATUS_COLUMN", "6")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "g-key", cfg.Model.APIKey)
	assert.Equal(t, "memory", cfg.RowStore.Backend)
	assert.Equal(t, 6, cfg.RowStore.StatusColumn, "env overrides the file")
	assert.Equal(t, "heuristic", cfg.Intent.Strategy)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestValidate_RejectsUnknownValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"provider":      func(c *Config) { c.Model.Provider = "llamafile" },
		"backend":       func(c *Config) { c.RowStore.Backend = "excel" },
		"strategy":      func(c *Config) { c.Intent.Strategy = "vibes" },
		"session store": func(c *Config) { c.Session.Store = "disk" },
		"status column": func(c *Config) { c.RowStore.StatusColumn = 9 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	_, err := Load("")
	assert.Error(t, err)
}
