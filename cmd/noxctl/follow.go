package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gaudesp/noxbot/internal/domain"
)

var flagChannel string

var followCmd = &cobra.Command{
	Use:   "follow <appid>",
	Short: "Follow a Steam app in a channel",
	Long: `Follow subscribes a channel to the news of a Steam app. The current
announcement is delivered on the next sync cycle.

Examples:
  noxctl follow 440 --tenant 1234 --channel 5678
  noxctl follow 570 --tenant -100123`,
	Args: cobra.ExactArgs(1),
	RunE: runFollow,
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <appid>",
	Short: "Stop following a Steam app",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnfollow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the apps a tenant follows",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every subscription of a tenant",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	for _, cmd := range []*cobra.Command{followCmd, unfollowCmd, listCmd, resetCmd} {
		requireTenant(cmd)
		rootCmd.AddCommand(cmd)
	}
	followCmd.Flags().StringVar(&flagChannel, "channel", "", "channel id (default: the tenant id)")
}

func parseAppID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid app id %q", arg)
	}
	return id, nil
}

func runFollow(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}

	channel := flagChannel
	if channel == "" {
		channel = flagTenant
	}

	sub, err := follows.Follow(cmd.Context(), flagTenant, channel, appID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("no Steam app with id %d", appID)
	case errors.Is(err, domain.ErrAlreadyFollowed):
		return fmt.Errorf("app %d is already followed", appID)
	case err != nil:
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Following %s (%d) in channel %s\n", sub.Item.Name, appID, sub.ChannelID)
	return nil
}

func runUnfollow(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}

	err = follows.Unfollow(cmd.Context(), flagTenant, appID)
	if errors.Is(err, domain.ErrNotFollowed) {
		return fmt.Errorf("app %d is not followed", appID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Unfollowed %d\n", appID)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	subs, err := follows.Tracked(cmd.Context(), flagTenant)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No followed apps")
		return nil
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "APPID\tNAME\tCHANNEL\tLAST DELIVERED")
	for _, sub := range subs {
		last := "-"
		if sub.LastDeliveredArticleID != nil {
			last = *sub.LastDeliveredArticleID
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", sub.Item.ExternalID, sub.Item.Name, sub.ChannelID, last)
	}
	return w.Flush()
}

func runReset(cmd *cobra.Command, args []string) error {
	removed, err := follows.Reset(cmd.Context(), flagTenant)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d subscriptions\n", len(removed))
	for _, sub := range removed {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d)\n", sub.Item.Name, sub.Item.ExternalID)
	}
	return nil
}
