package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes(t *testing.T) {
	data := []byte(`
version: "1"
backend:
  url: ws://localhost:9000/console
  orphan_timeout_ms: 60000
primary_provider: claude
providers:
  claude:
    command: claude
    default_model: claude-sonnet
  codex:
    enabled: false
    command: codex
    model_prefixes: ["gpt-", "o4"]
`)

	cfg, err := LoadFromBytes(data)
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:9000/console", cfg.Backend.URL)
	assert.Equal(t, 60000, cfg.Backend.OrphanTimeoutMs)
	// Unset archive URL falls back to the default
	assert.Equal(t, DefaultArchiveURL, cfg.Backend.ArchiveURL)

	require.NotNil(t, cfg.Provider("claude"))
	assert.True(t, cfg.Provider("claude").IsEnabled())
	assert.False(t, cfg.Provider("codex").IsEnabled())
	assert.Equal(t, []string{"gpt-", "o4"}, cfg.Provider("codex").ModelPrefixes)
	// Unknown providers are simply absent
	assert.Nil(t, cfg.Provider("gemini"))
}

func TestUnmarshalExtension(t *testing.T) {
	data := []byte(`
backend:
  url: ws://localhost:9000/console
logging:
  level: debug
  format:
    preset: simple
`)

	cfg, err := LoadFromBytes(data)
	require.NoError(t, err)

	var logCfg struct {
		Level  string `yaml:"level"`
		Format struct {
			Preset string `yaml:"preset"`
		} `yaml:"format"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "simple", logCfg.Format.Preset)

	// Missing keys leave the target zero-valued without error
	var unknown struct {
		Anything string `yaml:"anything"`
	}
	require.NoError(t, cfg.UnmarshalExtension("does-not-exist", &unknown))
	assert.Empty(t, unknown.Anything)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("VELOCITY_TEST_URL", "ws://from-env:1234/console")

	cfg, err := LoadFromBytes([]byte("backend:\n  url: ${VELOCITY_TEST_URL}\n"))
	require.NoError(t, err)
	assert.Equal(t, "ws://from-env:1234/console", cfg.Backend.URL)
}

func TestLoadFromWithOverride(t *testing.T) {
	dir := t.TempDir()

	base := `
backend:
  url: ws://localhost:9000/console
providers:
  codex:
    command: codex
    default_model: gpt-5
`
	override := `
providers:
  codex:
    enabled: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(base), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "velocity.override.yml"), []byte(override), 0644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	codex := cfg.Provider("codex")
	require.NotNil(t, codex)
	assert.False(t, codex.IsEnabled())
	// Fields the override did not set survive the merge
	assert.Equal(t, "codex", codex.Command)
	assert.Equal(t, "gpt-5", codex.DefaultModel)
}

func TestLoadFromWithoutConfigUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
	assert.Equal(t, DefaultPrimaryProvider, cfg.PrimaryProvider)
}
