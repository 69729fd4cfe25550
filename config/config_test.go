package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
postgres:
  dsn: postgres://file
nats:
  url: nats://file:4222
http:
  addr: ":9000"
session:
  idle_timeout: 30m
tarok:
  strict_duplicates: true
observability:
  environment: production
  tempo_sample_rate: 0.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://file", cfg.Postgres.DSN)
	assert.Equal(t, "nats://file:4222", cfg.NATS.URL)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.HTTP.RateLimitBurst)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.True(t, cfg.Tarok.StrictDuplicates)
	assert.Equal(t, "production", cfg.Observability.Environment)
	assert.Equal(t, 0.5, cfg.Observability.TempoSampleRate)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "postgres:\n  dsn: postgres://file\n")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("SESSION_IDLE_TIMEOUT", "45s")
	t.Setenv("TAROK_STRICT_DUPLICATES", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
	assert.Equal(t, 45*time.Second, cfg.Session.IdleTimeout)
	assert.True(t, cfg.Tarok.StrictDuplicates)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Run("env only", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env")
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Defaults().HTTP.Addr, cfg.HTTP.Addr)
		assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	})

	t.Run("dsn required", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "postgres.dsn")
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "postgres: [oops"))
	assert.ErrorContains(t, err, "unmarshal")

	_, err = LoadConfig(writeConfig(t, "postgres:\n  dsn: x\nobservability:\n  tempo_sample_rate: 2\n"))
	assert.ErrorContains(t, err, "tempo_sample_rate")
}
