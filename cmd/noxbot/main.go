package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaudesp/noxbot/internal/app"
	"github.com/gaudesp/noxbot/internal/config"
	"github.com/gaudesp/noxbot/internal/scheduler"
	"github.com/gaudesp/noxbot/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single sync cycle and exit")
	flag.Parse()

	logger := app.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = app.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer stores.Close()
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	dispatcher, err := app.NewDispatcher(cfg, logger)
	if err != nil {
		logger.Error("failed to create dispatcher", "error", err)
		os.Exit(1)
	}
	defer dispatcher.Close()

	steamSource := app.NewSteam(cfg.Steam, logger)

	syncService := service.NewSyncService(
		steamSource,
		stores.Subscriptions,
		stores.Articles,
		stores.SyncState,
		dispatcher,
		logger,
		cfg.Sync,
	).WithImageInspector(steamSource)

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, cfg.Sync.CycleTimeout, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *once {
		if _, err := sched.RunOnce(ctx); err != nil {
			logger.Error("sync failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting noxbot",
		"source", steamSource.Name(),
		"dispatcher", cfg.Dispatcher.Driver,
		"interval", cfg.Sync.Interval,
		"concurrency", cfg.Sync.Concurrency,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}
