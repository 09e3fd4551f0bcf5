package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ytanalyzer/internal/diagnose"
	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/enumerate"
	"ytanalyzer/internal/youtube"
)

var (
	printer = message.NewPrinter(language.English)

	warn = color.New(color.FgYellow).SprintFunc()
	good = color.New(color.FgGreen).SprintFunc()
	info = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func printChannel(w io.Writer, ch *youtube.ChannelSummary) {
	fmt.Fprintf(w, "%s (%s)\n", bold(ch.Title), ch.ID)
	printer.Fprintf(w, "  Videos:      %d\n", ch.DeclaredVideoCount)
	if ch.SubscribersHidden {
		fmt.Fprintf(w, "  Subscribers: hidden\n")
	} else {
		printer.Fprintf(w, "  Subscribers: %d\n", ch.SubscriberCount)
	}
	printer.Fprintf(w, "  Views:       %d\n", ch.ViewCount)
	if !ch.PublishedAt.IsZero() {
		fmt.Fprintf(w, "  Created:     %s\n", ch.PublishedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "  Uploads:     %s\n", ch.UploadsPlaylistID)
}

func printResult(w io.Writer, res *enumerate.Result) {
	pct := fmt.Sprintf("%.1f%%", res.Completeness)
	if res.Completeness >= 95 {
		pct = good(pct)
	} else {
		pct = warn(pct)
	}
	printer.Fprintf(w, "\nRetrieved %d of %d videos (%s) with %d API calls in %s\n",
		res.Retrieved, res.Declared, pct, res.Calls, res.Elapsed.Round(100*time.Millisecond))
	printer.Fprintf(w, "  listing pages %d, search pages %d, detail batches %d, quota errors %d\n",
		res.Counters.ListingPages, res.Counters.SearchPages, res.Counters.DetailBatches, res.Counters.QuotaErrors)
	if res.QuotaExhausted {
		fmt.Fprintln(w, warn("Every API key is out of quota; results are partial. Add a key or resume tomorrow."))
	}
	if res.Report != nil {
		printReport(w, res.Report)
	}
}

func printReport(w io.Writer, r *diagnose.Report) {
	printer.Fprintf(w, "\nMissing %d videos (%.1f%% of declared)\n", r.Missing, r.Percent)
	if !r.Oldest.IsZero() {
		fmt.Fprintf(w, "  Range: %s to %s\n", r.Oldest.Format("2006-01-02"), r.Newest.Format("2006-01-02"))
	}
	if len(r.Years) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  YEAR\tVIDEOS\t")
		for _, y := range r.Years {
			mark := ""
			for _, g := range r.Gaps {
				if g.Year == y.Year {
					mark = warn("gap")
				}
			}
			fmt.Fprintf(tw, "  %d\t%d\t%s\n", y.Year, y.Count, mark)
		}
		tw.Flush()
		fmt.Fprintf(w, "  Average %.1f videos per year\n", r.Average)
	}
	if len(r.Causes) > 0 {
		fmt.Fprintln(w, "  Likely causes:")
		for _, c := range r.Causes {
			fmt.Fprintf(w, "    - %s\n", c.Message)
		}
	}
}

func printVideos(w io.Writer, videos []youtube.VideoRecord, limit int) {
	if len(videos) == 0 {
		fmt.Fprintln(w, "No videos.")
		return
	}
	shown := videos
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tVIDEO ID\tTITLE\tDURATION\tVIEWS\tLIKES")
	for _, v := range shown {
		printer.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			v.PublishedAt.Format("2006-01-02"),
			v.ID,
			truncate(v.Title, 50),
			duration.Format(v.DurationSeconds),
			v.Views,
			v.Likes,
		)
	}
	tw.Flush()

	if len(shown) < len(videos) {
		printer.Fprintf(os.Stderr, "... %d more (use --limit 0 to show all)\n", len(videos)-len(shown))
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
