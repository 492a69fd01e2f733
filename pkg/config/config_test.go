package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otot/posdash/pkg/config"
	"github.com/otot/posdash/pkg/transport"
)

func vars(kv ...string) map[string]string {
	m := map[string]string{"POSDASH_BACKEND_URL": "https://pos.example.com/api"}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.WithEnvironment(vars()))
	require.NoError(t, err)

	assert.Equal(t, "https://pos.example.com/api", cfg.BackendURL)
	assert.Equal(t, config.StorageFile, cfg.Storage)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "posdash", cfg.ServiceName)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, transport.HeaderBearer, cfg.HeaderMode())

	key, err := cfg.Key()
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestLoad_Values(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	cfg, err := config.Load(config.WithEnvironment(vars(
		"POSDASH_STORAGE", "redis",
		"POSDASH_REDIS_URL", "redis://localhost:6379/0",
		"POSDASH_ENCRYPTION_KEY", key,
		"POSDASH_TOKEN_HEADER", "legacy",
		"POSDASH_REQUEST_TIMEOUT", "5s",
		"LOG_LEVEL", "debug",
	)))
	require.NoError(t, err)

	assert.Equal(t, config.StorageRedis, cfg.Storage)
	assert.Equal(t, transport.HeaderLegacy, cfg.HeaderMode())
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	k, err := cfg.Key()
	require.NoError(t, err)
	assert.Len(t, k, 32)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing backend":   {},
		"relative backend":  {"POSDASH_BACKEND_URL": "/api"},
		"unknown storage":   vars("POSDASH_STORAGE", "sqlite"),
		"redis without url": vars("POSDASH_STORAGE", "redis"),
		"short key":         vars("POSDASH_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("short"))),
		"bad base64 key":    vars("POSDASH_ENCRYPTION_KEY", "%%%"),
		"unknown header":    vars("POSDASH_TOKEN_HEADER", "cookie"),
		"bad timeout":       vars("POSDASH_REQUEST_TIMEOUT", "soon"),
		"zero timeout":      vars("POSDASH_REQUEST_TIMEOUT", "0s"),
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(config.WithEnvironment(env))
			require.Error(t, err)
		})
	}

	_, err := config.Load(config.WithEnvironment(vars("POSDASH_STORAGE", "sqlite")))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	_, err = config.Load(config.WithEnvironment(map[string]string{}))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "posdash.env")
	require.NoError(t, os.WriteFile(file, []byte("POSDASH_BACKEND_URL=https://from-file.example.com\nPOSDASH_STORAGE=memory\n"), 0o600))

	t.Setenv("POSDASH_STORAGE", "file")
	t.Cleanup(func() { _ = os.Unsetenv("POSDASH_BACKEND_URL") })
	cfg, err := config.Load(config.WithEnvFiles(filepath.Join(dir, "missing.env"), file))
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.example.com", cfg.BackendURL)
	assert.Equal(t, config.StorageFile, cfg.Storage, "process environment wins over the file")
}

func TestStoragePath(t *testing.T) {
	cfg := &config.Config{StorageDir: "/var/lib/posdash"}
	p, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/posdash", p)
}
