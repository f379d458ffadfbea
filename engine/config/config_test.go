package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.True(t, cfg.Window.VSync)
	assert.True(t, cfg.Shadows.Enabled)
	assert.Equal(t, uint32(1024), cfg.Shadows.TileSize)
	assert.Equal(t, "everyFrame", cfg.Shadows.Strategy)
	assert.Equal(t, time.Second, cfg.Renderer.ProfileInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
window:
  width: 1920
  vsync: false
shadows:
  tile_size: 2048
  strategy: whenDirty
renderer:
  profile_interval: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep their defaults")
	assert.False(t, cfg.Window.VSync)
	assert.Equal(t, uint32(2048), cfg.Shadows.TileSize)
	assert.Equal(t, "whenDirty", cfg.Shadows.Strategy)
	assert.Equal(t, 5*time.Second, cfg.Renderer.ProfileInterval)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window:\n  width: 800\n  height: 600\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := Parse(fs, []string{"-config", path, "-height", "900", "-debug"})
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 900, cfg.Window.Height)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Renderer.Profile)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err = Parse(fs, []string{"-width", "wide"})
	assert.Error(t, err)
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Shadows.Strategy = "manual"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
