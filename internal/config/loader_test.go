package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points XDG lookups and the working directory at temp dirs so a
// developer's own config or .env never leaks into a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	SetConfigFile("")
	t.Cleanup(func() { SetConfigFile("") })
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		isolate(t)

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, "libsql", cfg.Store.Driver)
		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir("crosspost"), "crosspost.db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)
		assert.Equal(t, "", cfg.Store.URL)

		assert.Equal(t, 5*time.Second, cfg.Preview.Timeout)
		assert.Equal(t, int64(2097152), cfg.Preview.MaxBodyBytes)
		assert.Contains(t, cfg.Preview.UserAgent, "crosspost-linkpreview")

		assert.Equal(t, 10, cfg.RateLimit.ServerPerMinute)
		assert.Equal(t, 5, cfg.RateLimit.ClientPerMinute)
		assert.Equal(t, 10, cfg.RateLimit.LockoutMinutes)

		assert.True(t, cfg.Visits.Enabled)
		assert.Equal(t, "log", cfg.Visits.Sink)
		assert.Equal(t, float64(20), cfg.Visits.PerSecond)
		assert.Equal(t, 50, cfg.Visits.Burst)
		assert.Equal(t, 2*time.Second, cfg.Visits.Timeout)
		assert.Equal(t, "crosspost:visits", cfg.Visits.RedisStream)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		assert.True(t, cfg.Health.Enabled)
		assert.False(t, cfg.Debug.Enabled)

		assert.Same(t, cfg, GetConfig())
	})

	t.Run("UserConfigFile", func(t *testing.T) {
		isolate(t)

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\nrate_limit:\n  server_per_minute: 3\n"), 0o600))
		SetConfigFile(path)

		cfg, err := Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 3, cfg.RateLimit.ServerPerMinute)
		assert.Equal(t, 5, cfg.RateLimit.ClientPerMinute)
	})

	t.Run("MissingExplicitConfigFile", func(t *testing.T) {
		isolate(t)
		SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := Load(ctx)
		require.Error(t, err)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		isolate(t)
		t.Setenv("CROSSPOST_PORT", "7070")
		t.Setenv("CROSSPOST_PREVIEW_TIMEOUT", "750ms")
		t.Setenv("CROSSPOST_VISITS_ENABLED", "false")
		t.Setenv("CROSSPOST_DB_DRIVER", "sqlite")

		cfg, err := Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, 750*time.Millisecond, cfg.Preview.Timeout)
		assert.False(t, cfg.Visits.Enabled)
		assert.Equal(t, "sqlite", cfg.Store.Driver)
	})

	t.Run("DotEnvFile", func(t *testing.T) {
		isolate(t)
		require.NoError(t, os.WriteFile(".env", []byte("CROSSPOST_CLIENT_RATE_LIMIT=9\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("CROSSPOST_CLIENT_RATE_LIMIT") })

		cfg, err := Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9, cfg.RateLimit.ClientPerMinute)
	})

	t.Run("RuntimeOverridesWin", func(t *testing.T) {
		isolate(t)
		t.Setenv("CROSSPOST_PORT", "7070")

		cfg, err := Load(ctx, map[string]any{
			"server": map[string]any{"port": 6060},
		})
		require.NoError(t, err)
		assert.Equal(t, 6060, cfg.Server.Port)
		assert.Equal(t, "localhost", cfg.Server.Host)
	})

	t.Run("InvalidSettings", func(t *testing.T) {
		isolate(t)

		_, err := Load(ctx, map[string]any{"visits": map[string]any{"sink": "kafka"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "visits.sink")

		_, err = Load(ctx, map[string]any{"visits": map[string]any{"sink": "redis"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis_url")

		_, err = Load(ctx, map[string]any{"store": map[string]any{"driver": "postgres"}})
		require.Error(t, err)
	})
}

func TestMergeMaps(t *testing.T) {
	dst := map[string]any{
		"server": map[string]any{"host": "localhost", "port": 8080},
		"debug":  false,
	}
	mergeMaps(dst, map[string]any{
		"server": map[string]any{"port": 1},
		"debug":  true,
		"extra":  "x",
	})

	assert.Equal(t, map[string]any{"host": "localhost", "port": 1}, dst["server"])
	assert.Equal(t, true, dst["debug"])
	assert.Equal(t, "x", dst["extra"])
}

func TestDefaultPaths(t *testing.T) {
	isolate(t)
	assert.Equal(t, "config.yaml", filepath.Base(DefaultConfigPath()))
	assert.Equal(t, "crosspost.db", filepath.Base(DefaultStorePath()))
}
