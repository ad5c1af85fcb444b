package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "noxbot.db", cfg.Database.Path)
	assert.Equal(t, "rabbitmq", cfg.Dispatcher.Driver)
	assert.Equal(t, "steam_community_announcements", cfg.Steam.Feed)
	assert.Equal(t, 1, cfg.Steam.Retry.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.Equal(t, TeaserConfig{MaxChars: 500, MaxLines: 12}, cfg.Sync.Teaser)
	assert.False(t, cfg.Sync.Image.Enabled())
}

func TestParse_Values(t *testing.T) {
	t.Setenv("NOXBOT_TEST_TOKEN", "secret-token")

	cfg, err := Parse([]byte(`
log_level: debug
database:
  driver: postgres
  host: db
  port: 5433
  user: nox
  password: pw
  dbname: noxbot
dispatcher:
  driver: telegram
telegram:
  token: ${NOXBOT_TEST_TOKEN}
steam:
  timeout: 5s
  rate_per_second: 0.5
sync:
  interval: 10m
  concurrency: 2
  teaser:
    max_chars: 300
    max_lines: 6
  image:
    min_width: 460
    min_height: 215
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "secret-token", cfg.Telegram.Token)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Steam.Timeout)
	assert.Equal(t, 0.5, cfg.Steam.RatePerSecond)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 2, cfg.Sync.Concurrency)
	assert.Equal(t, 300, cfg.Sync.Teaser.MaxChars)
	assert.Equal(t, ImageConfig{MinWidth: 460, MinHeight: 215}, cfg.Sync.Image)
	assert.True(t, cfg.Sync.Image.Enabled())
	assert.Equal(t, "host=db port=5433 user=nox password=pw dbname=noxbot sslmode=disable", cfg.Database.DSN())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`
log_level: loud
database:
  driver: mysql
dispatcher:
  driver: telegram
sync:
  concurrency: -1
  image:
    min_width: -5
`))
	require.Error(t, err)

	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "telegram.token")
	assert.Contains(t, err.Error(), "sync.concurrency")
	assert.Contains(t, err.Error(), "sync.image")
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("sync: [unterminated"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: /tmp/nox.db\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/nox.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", cfg.Database.DSN())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
