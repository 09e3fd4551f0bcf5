package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/storage"
)

var debugCmd = &cobra.Command{
	Use:   "debug [channel-url]",
	Short: "Show configuration, key and session state",
	Long: `Show the effective configuration, the key pool and the latest saved
session. With a channel URL the channel is also resolved and its summary
printed, which costs one or two API calls.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		w := os.Stdout

		fmt.Fprintln(w, bold("Config"))
		fmt.Fprintf(w, "  credentials:   %s\n", cfg.CredentialsPath)
		fmt.Fprintf(w, "  sessions:      %s\n", cfg.SessionDir)
		fmt.Fprintf(w, "  call interval: %s (bulk %s)\n", cfg.CallInterval, cfg.BulkInterval)
		fmt.Fprintf(w, "  timeout:       %s\n", cfg.RequestTimeout)

		fmt.Fprintln(w, bold("Keys"))
		idx, key := a.pool.Active()
		fmt.Fprintf(w, "  %d configured, active #%d %s\n", a.pool.Size(), idx+1, credpool.Mask(key))

		channelID := ""
		if len(args) == 1 {
			ch, err := a.runner.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, bold("Channel"))
			printChannel(w, ch)
			fmt.Fprintf(w, "  API calls used: %d\n", a.pool.Calls())
			channelID = ch.ID
		}

		fmt.Fprintln(w, bold("Latest session"))
		sess, path, err := a.sessions.Latest(channelID)
		if err != nil {
			fmt.Fprintf(w, "  none (%v)\n", err)
			return nil
		}
		printSession(sess, path)
		return nil
	},
}

func printSession(sess *storage.Session, path string) {
	w := os.Stdout
	c, st := sess.Counters, sess.State
	fmt.Fprintf(w, "  file:      %s\n", path)
	fmt.Fprintf(w, "  saved:     %s (schema %s)\n", sess.SavedAt.Local().Format("2006-01-02 15:04:05"), sess.Version)
	if sess.Channel != nil {
		printer.Fprintf(w, "  channel:   %s, %d of %d videos\n", sess.Channel.Title, len(sess.Videos), sess.Channel.DeclaredVideoCount)
	}
	printer.Fprintf(w, "  calls:     %d\n", sess.Calls)
	fmt.Fprintf(w, "  pages:     listing %d, search %d, details %d\n", c.ListingPages, c.SearchPages, c.DetailBatches)
	fmt.Fprintf(w, "  errors:    quota %d, other %d, malformed %d\n", c.QuotaErrors, c.OtherErrors, c.MalformedRecords)
	if c.LastError != "" {
		fmt.Fprintf(w, "  last:      %s\n", c.LastError)
	}
	fmt.Fprintf(w, "  runs:      %v\n", c.Strategies)
	if st.PageToken != "" {
		fmt.Fprintf(w, "  cursor:    %s page %d (%s)\n", st.PlaylistID, st.Pages, st.Strategy)
	} else {
		fmt.Fprintln(w, "  cursor:    start")
	}
}
