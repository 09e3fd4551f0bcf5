package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ytanalyzer/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [session]",
	Short: "Write the videos of a saved session to CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		var ref string
		if len(args) == 1 {
			ref = args[0]
		}
		sess, _, err := a.loadSession(ref)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		out := exportOutput
		if out == "" {
			out = "videos.csv"
			if sess.Channel != nil {
				out = sess.Channel.ID + "_videos.csv"
			}
		}
		if err := export.SaveCSV(out, sess.Videos); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d videos to %s\n", len(sess.Videos), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default <channel-id>_videos.csv)")
	rootCmd.AddCommand(exportCmd)
}
