package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "SERVER_PORT", "LOG_LEVEL", "API_BASE_URL", "API_TIMEOUT_SECONDS", "JWT_SECRET", "DB_USER"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Error(t, cfg.ValidateServer())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "civic")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "votes")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("API_TIMEOUT_SECONDS", "3")
	t.Setenv("API_TOKEN", "tok")

	cfg := FromEnv()
	require.NoError(t, cfg.ValidateServer())
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Contains(t, cfg.DSN(), "host=db")
	assert.Contains(t, cfg.DSN(), "dbname=votes")
	assert.Contains(t, cfg.DSN(), "sslmode=disable")
}

func TestFromEnv_BadTimeoutFallsBack(t *testing.T) {
	t.Setenv("API_TIMEOUT_SECONDS", "soon")
	assert.Equal(t, 15*time.Second, FromEnv().APITimeout)
}
