package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaudesp/noxbot/internal/config"
	"github.com/gaudesp/noxbot/internal/publisher"
)

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("info").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("error").Enabled(ctx, slog.LevelWarn))
	assert.True(t, NewLogger("bogus").Enabled(ctx, slog.LevelInfo))
}

func TestOpenStores_SQLite(t *testing.T) {
	stores, err := OpenStores(context.Background(), config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer stores.Close()

	subs, err := stores.Subscriptions.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	_, err := OpenStores(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestNewDispatcher(t *testing.T) {
	cfg := &config.Config{
		Dispatcher: config.DispatcherConfig{Driver: "telegram"},
		Telegram:   config.TelegramConfig{Token: "123:abc", APIURL: "http://127.0.0.1:1"},
	}

	d, err := NewDispatcher(cfg, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &publisher.Telegram{}, d)

	cfg.Dispatcher.Driver = "smtp"
	_, err = NewDispatcher(cfg, slog.Default())
	assert.Error(t, err)
}
