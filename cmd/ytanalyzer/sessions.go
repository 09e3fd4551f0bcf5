package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		infos, err := a.sessions.List()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintf(os.Stdout, "No sessions in %s\n", a.sessions.Dir())
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SAVED\tCHANNEL\tVIDEOS\tFILE")
		for _, s := range infos {
			printer.Fprintf(tw, "%s\t%s\t%d\t%s\n",
				s.SavedAt.Local().Format("2006-01-02 15:04"),
				truncate(s.Title, 40),
				s.Videos,
				s.Path,
			)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
