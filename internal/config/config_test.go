package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "swish-mcp", cfg.Container.Name)
	assert.Equal(t, "swipl/swish:latest", cfg.Container.Image)
	assert.Equal(t, 3050, cfg.Container.Port)
	assert.Equal(t, 30*time.Second, cfg.GetQueryTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetCanaryTimeout())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "swish.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Container, cfg.Container)
}

func TestLoadSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swish.yaml")

	cfg := DefaultConfig()
	cfg.Container.Name = "my-swish"
	cfg.Session.QueryTimeout = "45s"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-swish", loaded.Container.Name)
	assert.Equal(t, 45*time.Second, loaded.GetQueryTimeout())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swish.yaml")
	require.NoError(t, os.WriteFile(path, []byte("container: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("container name and image", func(t *testing.T) {
		t.Setenv("SWISH_CONTAINER", "alt-swish")
		t.Setenv("SWISH_IMAGE", "swipl/swish:9")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "alt-swish", cfg.Container.Name)
		assert.Equal(t, "swipl/swish:9", cfg.Container.Image)
	})

	t.Run("port must be numeric", func(t *testing.T) {
		t.Setenv("SWISH_PORT", "not-a-port")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 3050, cfg.Container.Port)
	})

	t.Run("query timeout must parse", func(t *testing.T) {
		t.Setenv("SWISH_QUERY_TIMEOUT", "90s")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 90*time.Second, cfg.GetQueryTimeout())

		t.Setenv("SWISH_QUERY_TIMEOUT", "soon")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 30*time.Second, cfg.GetQueryTimeout())
	})

	t.Run("debug flag", func(t *testing.T) {
		t.Setenv("SWISH_DEBUG", "1")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.Debug)
	})
}

func TestDurationFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.StopGrace = "garbage"
	assert.Equal(t, 2*time.Second, cfg.GetStopGrace())

	cfg.Session.StopGrace = "-5s"
	assert.Equal(t, 2*time.Second, cfg.GetStopGrace())
}

func TestDirResolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspace = "/work"

	assert.Equal(t, filepath.Join("/work", "swish-data", "data"), cfg.DataDir())
	assert.Equal(t, filepath.Join("/work", "logs"), cfg.LogDir())

	cfg.Files.DataDir = "/abs/kb"
	assert.Equal(t, "/abs/kb", cfg.DataDir())

	cfg.Logging.Dir = "/var/log/swish"
	assert.Equal(t, "/var/log/swish", cfg.LogDir())
}
