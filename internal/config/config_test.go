package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, 30, cfg.BackdateLimitDays)
	assert.InDelta(t, 0.5, cfg.PriceTolerance, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, time.Hour, cfg.WorkerInterval)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.UseMemoryStore())
	assert.False(t, cfg.UseRedisLocks())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("DB_STATEMENT_TIMEOUT", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOCK_TTL", "10s")
	t.Setenv("PRICE_TOLERANCE", "0.25")

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.UseMemoryStore())
	assert.True(t, cfg.UseRedisLocks())
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.InDelta(t, 0.25, cfg.PriceTolerance, 1e-9)
	assert.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BACKDATE_LIMIT_DAYS=7\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("BACKDATE_LIMIT_DAYS")
		_ = os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.BackdateLimitDays)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "HTTP_PORT", "http"},
		{"port out of range", "HTTP_PORT", "70000"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"tolerance above one", "PRICE_TOLERANCE", "1.5"},
		{"backdate limit zero", "BACKDATE_LIMIT_DAYS", "0"},
		{"worker interval zero", "WORKER_INTERVAL", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(missingFile(t))
			assert.Error(t, err)
		})
	}
}
