package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvStorage, "")
	t.Setenv(EnvLogLevel, "")
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "archviz-storage", cfg.Storage.Key)
	assert.Equal(t, 16*time.Millisecond, cfg.Layout.FrameInterval.Std())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://infer:9000"
timeout = "45s"

[storage]
backend = "redis"
addr = "cache:6379"
ttl = "24h"

[layout]
charge = -800.0

[log]
level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://infer:9000", cfg.API.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout.Std())
	assert.Equal(t, 3, cfg.API.MaxRetries, "unset keys keep their defaults")
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Storage.TTL.Std())
	assert.Equal(t, -800.0, cfg.Layout.Charge)
	assert.Equal(t, 200.0, cfg.Layout.LinkDistance)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://override:8000")
	t.Setenv(EnvStorage, "memory")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://override:8000", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := map[string]string{
		"syntax":       "[api\nbase_url=",
		"backend":      "[storage]\nbackend = \"s3\"",
		"duration":     "[api]\ntimeout = \"soon\"",
		"zoom range":   "[layout]\nmin_zoom = 2.0\nmax_zoom = 1.0",
		"base url":     "[api]\nbase_url = \"\"",
		"log backend":  "[log]\nbackend = \"syslog\"",
		"retry budget": "[api]\nmax_retries = 99",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStorage, "floppy")
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "invalid config")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.TTL = Duration(90 * time.Minute)
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ttl = "1h30m0s"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnsureExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, EnsureExists(path))
	require.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o644))
	require.NoError(t, EnsureExists(path))
	data, _ := os.ReadFile(path)
	assert.Contains(t, string(data), "warn", "existing file is left alone")
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfig, "/etc/archviz.toml")
	assert.Equal(t, "/etc/archviz.toml", DefaultPath())

	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/archviz/config.toml", DefaultPath())
}
