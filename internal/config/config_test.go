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

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: sync
  dbname: commerce_sync
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 30*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.Equal(t, 1, cfg.Queue.Concurrency["bulk-sync"])
	assert.Equal(t, 4, cfg.Queue.Concurrency["poll-bulk"])
	assert.Equal(t, 5, cfg.Queue.Concurrency["recent-sync"])
	assert.Zero(t, cfg.Queue.HeartbeatInterval)
	assert.Equal(t, 30, cfg.Gaps.LookbackDays)
	assert.Equal(t, 365, cfg.Gaps.DeepLookbackDays)
	assert.Equal(t, "info", cfg.LogLevel)

	since, err := cfg.Sync.Since()
	require.NoError(t, err)
	assert.Equal(t, 2000, since.Year())
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")
	path := writeConfig(t, `
database:
  password: ${TEST_DB_PASSWORD}
queue:
  concurrency:
    bulk-sync: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 2, cfg.Queue.Concurrency["bulk-sync"])
	assert.Equal(t, 4, cfg.Queue.Concurrency["poll-bulk"])
	assert.Contains(t, cfg.Database.DSN(), "password=s3cret")
}

func TestLoad_InvalidSinceDate(t *testing.T) {
	path := writeConfig(t, `
sync:
  since_date: yesterday
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "since_date")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}
