package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/streampulse")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 1000, cfg.MaxClientsPerStream)
	assert.Equal(t, 20, cfg.DefaultListLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/app")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("MAX_CLIENTS_PER_STREAM", "50")
	t.Setenv("DEFAULT_LIST_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis://cache:6379", cfg.RedisURL)
	assert.Equal(t, 50, cfg.MaxClientsPerStream)
	assert.Equal(t, 5, cfg.DefaultListLimit)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/streampulse")
	t.Setenv("MAX_CLIENTS_PER_STREAM", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CLIENTS_PER_STREAM")
}

func TestLoad_NonPositiveLimits(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/streampulse")
	t.Setenv("MAX_CLIENTS_PER_STREAM", "0")

	_, err := Load()
	assert.Error(t, err)
}
