// Package app wires configuration into the concrete stores, catalog client
// and dispatchers shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/gaudesp/noxbot/internal/config"
	"github.com/gaudesp/noxbot/internal/publisher"
	"github.com/gaudesp/noxbot/internal/service"
	"github.com/gaudesp/noxbot/internal/source/steam"
	"github.com/gaudesp/noxbot/internal/storage/sqlstore"
)

func NewLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// Stores groups the sqlstore implementations over one database handle.
type Stores struct {
	DB            *sqlx.DB
	Items         *sqlstore.TrackedItemStore
	Articles      *sqlstore.ArticleStore
	Subscriptions *sqlstore.SubscriptionStore
	SyncState     *sqlstore.SyncStateStore
	TxManager     *sqlstore.TransactionManager
}

// OpenStores connects to the configured database and applies the schema.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	db, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err := sqlstore.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Stores{
		DB:            db,
		Items:         sqlstore.NewTrackedItemStore(db),
		Articles:      sqlstore.NewArticleStore(db),
		Subscriptions: sqlstore.NewSubscriptionStore(db),
		SyncState:     sqlstore.NewSyncStateStore(db),
		TxManager:     sqlstore.NewTransactionManager(db),
	}, nil
}

func (s *Stores) Close() error {
	return s.DB.Close()
}

func NewSteam(cfg config.SteamConfig, logger *slog.Logger) *steam.Source {
	return steam.New(steam.Config{
		NewsURL:        cfg.NewsURL,
		StoreURL:       cfg.StoreURL,
		AppListURL:     cfg.AppListURL,
		Feed:           cfg.Feed,
		NewsCount:      cfg.NewsCount,
		Timeout:        cfg.Timeout,
		RatePerSecond:  cfg.RatePerSecond,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
	}, logger)
}

// NewDispatcher builds the dispatcher selected by cfg.Dispatcher.Driver.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) (service.Dispatcher, error) {
	switch cfg.Dispatcher.Driver {
	case "rabbitmq":
		pub, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case "telegram":
		tg, err := publisher.NewTelegram(publisher.TelegramConfig{
			Token:   cfg.Telegram.Token,
			APIURL:  cfg.Telegram.APIURL,
			Timeout: cfg.Sync.DispatchTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return tg, nil
	default:
		return nil, fmt.Errorf("unknown dispatcher driver %q", cfg.Dispatcher.Driver)
	}
}
