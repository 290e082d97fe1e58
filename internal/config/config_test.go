package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cf, err := NewLoader(filepath.Join(t.TempDir(), "missing.env")).Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cf.ServerPort)
	assert.Equal(t, 30*time.Minute, cf.SessionTTL)
	assert.True(t, cf.CartStrictValidation)
	assert.False(t, cf.RedisEnabled())
	assert.False(t, cf.KafkaEnabled())
	assert.False(t, cf.DbEnabled())
}

func TestLoad_FromFile(t *testing.T) {
	path := writeEnv(t, `SERVER_PORT=9090
LOG_LEVEL=debug
REDIS_ADDR=localhost:6379
SESSION_TTL=45m
KAFKA_BROKERS=localhost:9092,localhost:9093
KAFKA_TOPIC=cart-events
CART_STRICT_VALIDATION=false
`)

	l := NewLoader(path)
	cf, err := l.Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cf.ServerPort)
	assert.Equal(t, "debug", cf.LogLevel)
	assert.Equal(t, 45*time.Minute, cf.SessionTTL)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cf.KafkaBrokers)
	assert.True(t, cf.KafkaEnabled())
	assert.True(t, cf.RedisEnabled())
	assert.False(t, cf.CartStrictValidation)
	assert.Same(t, cf, l.Current())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeEnv(t, "SERVER_PORT=9090\n")
	t.Setenv("SERVER_PORT", "7070")

	cf, err := NewLoader(path).Load()

	require.NoError(t, err)
	assert.Equal(t, "7070", cf.ServerPort)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Setenv("SESSION_TTL", "0s")

	_, err := NewLoader("").Load()

	require.ErrorIs(t, err, ErrInvalidConfig)
}
