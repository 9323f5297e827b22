package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_visual/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.WithSearchDirs(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Sound.Muted)
	assert.Equal(t, 16, cfg.Sound.Buffer)
	assert.Equal(t, 50*time.Millisecond, cfg.Playback.Tick)
	assert.Equal(t, 300*time.Millisecond, cfg.Demo.MinDelay)
	assert.Equal(t, 600*time.Millisecond, cfg.Demo.MaxDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Demo.Stagger)
	assert.InDelta(t, 0.6, cfg.Demo.FailureRate, 1e-9)
	assert.Zero(t, cfg.Demo.Seed)
}

func TestLoad_FileFoundInSearchDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "effectviz.yaml", `
log:
  level: debug
demo:
  min_delay: 10ms
  max_delay: 20ms
  seed: 7
`)

	cfg, err := config.Load(config.WithSearchDirs(dir))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10*time.Millisecond, cfg.Demo.MinDelay)
	assert.Equal(t, 20*time.Millisecond, cfg.Demo.MaxDelay)
	assert.Equal(t, int64(7), cfg.Demo.Seed)
	assert.Equal(t, "console", cfg.Log.Format, "unset keys keep their defaults")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "sound:\n  muted: true\n")
	t.Setenv("EFFECTVIZ_SOUND_MUTED", "false")
	t.Setenv("EFFECTVIZ_DEMO_FAILURE_RATE", "0.9")

	cfg, err := config.Load(config.WithConfigFile(path))
	require.NoError(t, err)

	assert.False(t, cfg.Sound.Muted)
	assert.InDelta(t, 0.9, cfg.Demo.FailureRate, 1e-9)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "EFFECTVIZ_PLAYBACK_TICK=250ms\n")
	// godotenv sets the variable for the whole process
	t.Setenv("EFFECTVIZ_PLAYBACK_TICK", "")
	require.NoError(t, os.Unsetenv("EFFECTVIZ_PLAYBACK_TICK"))

	cfg, err := config.Load(config.WithSearchDirs(dir), config.WithEnvFile(envFile))
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Playback.Tick)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(config.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestLoad_InvalidValuesAreRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "effectviz.yaml", `
log:
  format: xml
demo:
  min_delay: 1s
  max_delay: 10ms
  failure_rate: 2
`)

	_, err := config.Load(config.WithSearchDirs(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Format")
	assert.Contains(t, err.Error(), "MaxDelay")
	assert.Contains(t, err.Error(), "FailureRate")
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, config.Exists(writeFile(t, dir, "a", "")))
	assert.False(t, config.Exists(filepath.Join(dir, "b")))
}
