package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ytanalyzer/internal/export"
	"ytanalyzer/internal/filter"
)

var (
	filterSpec   filter.Spec
	filterMode   string
	filterPreset string
	filterCSV    string
	filterLimit  int
)

var filterCmd = &cobra.Command{
	Use:   "filter [session]",
	Short: "Filter the videos of a saved session",
	Long: `Filter the videos of a saved session by title keywords, views, duration and
publish date. The session is a file path or "latest" (the default).

Keywords are separated by commas or spaces; quote a phrase to match it as a
whole and prefix a term with - to exclude it:

  ytanalyzer filter --keywords '"live show" -rerun' --min-views 1,000

Durations are minutes (2.5), M:SS or H:MM:SS. Invalid values are ignored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func init() {
	f := filterCmd.Flags()
	f.StringVarP(&filterSpec.Keywords, "keywords", "k", "", "title keywords")
	f.StringVar(&filterMode, "mode", "and", "combine keywords with and/or")
	f.BoolVar(&filterSpec.CaseSensitive, "case-sensitive", false, "match keyword case")
	f.BoolVar(&filterSpec.WholeWord, "whole-word", false, "match keywords as whole words")
	f.StringVar(&filterSpec.MinViews, "min-views", "", "minimum view count")
	f.StringVar(&filterSpec.MinDuration, "min-duration", "", "minimum duration")
	f.StringVar(&filterSpec.MaxDuration, "max-duration", "", "maximum duration")
	f.StringVar(&filterPreset, "preset", "", "duration preset: "+presetNames())
	f.StringVar(&filterSpec.StartDate, "from", "", "published on or after (YYYY-MM-DD)")
	f.StringVar(&filterSpec.EndDate, "to", "", "published on or before (YYYY-MM-DD)")
	f.StringVar(&filterCSV, "csv", "", "export the matches to this CSV file")
	f.IntVarP(&filterLimit, "limit", "n", 50, "videos to print (0 = all)")
	rootCmd.AddCommand(filterCmd)
}

func presetNames() string {
	names := make([]string, len(filter.Presets))
	for i, p := range filter.Presets {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func runFilter(cmd *cobra.Command, args []string) error {
	spec := filterSpec
	mode, err := filter.ParseMode(filterMode)
	if err != nil {
		return err
	}
	spec.Mode = mode
	if filterPreset != "" {
		if spec, err = spec.WithPreset(filterPreset); err != nil {
			return err
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	var ref string
	if len(args) == 1 {
		ref = args[0]
	}
	sess, path, err := a.loadSession(ref)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	res := filter.New(cfg.MemoSize).Apply(sess.Videos, spec)

	fmt.Fprintf(os.Stderr, "Session %s\n", path)
	if len(res.Applied) == 0 {
		fmt.Fprintln(os.Stderr, "No filters applied.")
	} else {
		fmt.Fprintf(os.Stderr, "Filters: %s\n", strings.Join(res.Applied, "; "))
	}
	printer.Fprintf(os.Stdout, "%d of %d videos match\n\n", len(res.Videos), len(sess.Videos))
	printVideos(os.Stdout, res.Videos, filterLimit)

	if filterCSV != "" {
		if err := export.SaveCSV(filterCSV, res.Videos); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d videos to %s\n", len(res.Videos), filterCSV)
	}
	return nil
}
