package util

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, PersistMemory, cfg.Persist)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.False(t, cfg.Nats.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9090"
persist: redis
redis:
  host: redis.internal
  port: 6380
  db: 2
nats:
  enabled: true
  url: nats://broker:4222
`
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, PersistRedis, cfg.Persist)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.Nats.Enabled)
	assert.Equal(t, "nats://broker:4222", cfg.Nats.URL)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	os.Setenv("REDIS_HOST", "env-redis")
	os.Setenv("REDIS_PORT", "7000")
	os.Setenv("LISTEN_ADDR", ":7788")
	os.Setenv("NATS_URL", "nats://env-broker:4222")
	defer func() {
		os.Unsetenv("REDIS_HOST")
		os.Unsetenv("REDIS_PORT")
		os.Unsetenv("LISTEN_ADDR")
		os.Unsetenv("NATS_URL")
	}()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":7788", cfg.ListenAddr)
	assert.Equal(t, "env-redis:7000", cfg.RedisAddr())
	assert.True(t, cfg.Nats.Enabled)
}

func TestLoadConfigRejectsUnknownPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("persist: mysql\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
