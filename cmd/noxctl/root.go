package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaudesp/noxbot/internal/app"
	"github.com/gaudesp/noxbot/internal/config"
	"github.com/gaudesp/noxbot/internal/service"
	"github.com/gaudesp/noxbot/internal/source/steam"
)

var (
	flagConfig string
	flagTenant string

	stores  *app.Stores
	catalog *steam.Source
	follows *service.FollowService
)

var rootCmd = &cobra.Command{
	Use:   "noxctl",
	Short: "noxctl manages noxbot subscriptions",
	Long: `noxctl edits the subscriptions noxbot delivers Steam news to.

Usage:
  noxctl search <query>
  noxctl follow <appid> --tenant <id> [--channel <id>]
  noxctl unfollow <appid> --tenant <id>
  noxctl list --tenant <id>
  noxctl reset --tenant <id>
  noxctl status`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stores != nil {
			stores.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	// Keep logs out of command output unless debugging.
	logger := app.NewLogger("error")
	if cfg.LogLevel == "debug" {
		logger = app.NewLogger(cfg.LogLevel)
	}

	stores, err = app.OpenStores(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	catalog = app.NewSteam(cfg.Steam, logger)
	follows = service.NewFollowService(
		catalog,
		catalog,
		stores.Items,
		stores.Subscriptions,
		stores.TxManager,
		logger,
	)
	return nil
}

func requireTenant(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagTenant, "tenant", "", "tenant (server or chat) id")
	_ = cmd.MarkFlagRequired("tenant")
}
