package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gaudesp/noxbot/internal/source/steam"
)

var flagLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the Steam catalog by name",
	Long: `Search ranks Steam apps by how closely their name matches the query.
The first run downloads the full app list, which takes a few seconds.

Examples:
  noxctl search portal
  noxctl search "team fortress" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last sync cycle",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	searchCmd.Flags().IntVar(&flagLimit, "limit", steam.DefaultSearchLimit, "maximum number of results")
	rootCmd.AddCommand(searchCmd, statusCmd)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	entries, err := follows.Search(cmd.Context(), query, flagLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No app matches %q\n", query)
		return nil
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "APPID\tNAME")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\n", e.ExternalID, e.Name)
	}
	return w.Flush()
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	state, err := stores.SyncState.Get(ctx, catalog.ID())
	if err != nil {
		return err
	}
	subs, err := stores.Subscriptions.ListAll(ctx)
	if err != nil {
		return err
	}

	items := make(map[int64]struct{})
	for _, sub := range subs {
		items[sub.TrackedItemID] = struct{}{}
	}

	last := "never"
	if !state.LastSyncedAt.IsZero() {
		last = state.LastSyncedAt.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "Source\t%s\n", catalog.Name())
	fmt.Fprintf(w, "Last sync\t%s\n", last)
	fmt.Fprintf(w, "Subscriptions\t%d\n", len(subs))
	fmt.Fprintf(w, "Tracked apps\t%d\n", len(items))
	fmt.Fprintf(w, "Articles updated\t%d\n", state.TotalUpdated)
	fmt.Fprintf(w, "Notifications sent\t%d\n", state.TotalDispatched)
	return w.Flush()
}
