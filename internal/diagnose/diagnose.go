// Package diagnose explains the shortfall between the number of videos a
// channel declares and the number an enumeration retrieved.
package diagnose

import (
	"fmt"
	"sort"
	"time"

	"ytanalyzer/internal/youtube"
)

// Thresholds tune the cause heuristics.
type Thresholds struct {
	// EarlyYear flags retrievals whose oldest record is newer than this year.
	EarlyYear int `json:"early_year" yaml:"early_year"`
	// MissingRatio flags missing counts above this fraction of the
	// retrieved count.
	MissingRatio float64 `json:"missing_ratio" yaml:"missing_ratio"`
	LargeChannel int64   `json:"large_channel" yaml:"large_channel"`
	HugeChannel  int64   `json:"huge_channel" yaml:"huge_channel"`
	// PageCeiling flags walkers that fetched more pages than this.
	PageCeiling int `json:"page_ceiling" yaml:"page_ceiling"`
}

// DefaultThresholds returns the stock heuristics.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EarlyYear:    2010,
		MissingRatio: 0.5,
		LargeChannel: 50000,
		HugeChannel:  100000,
		PageCeiling:  400,
	}
}

// Validate checks the thresholds for nonsensical values.
func (t Thresholds) Validate() error {
	if t.MissingRatio < 0 {
		return fmt.Errorf("missing ratio must not be negative, got %v", t.MissingRatio)
	}
	if t.LargeChannel < 0 || t.HugeChannel < 0 {
		return fmt.Errorf("channel size thresholds must not be negative")
	}
	if t.PageCeiling < 0 {
		return fmt.Errorf("page ceiling must not be negative, got %d", t.PageCeiling)
	}
	return nil
}

// Input is what a finished run knows.
type Input struct {
	Declared     int64
	Videos       []youtube.VideoRecord
	QuotaErrors  int
	ListingPages int
	SearchPages  int
}

// Cause codes, in rank order.
const (
	CauseLateStart      = "late_start"
	CauseUnlisted       = "private_or_unlisted"
	CauseQuota          = "quota_errors"
	CauseLargeChannel   = "large_channel"
	CauseBroadcast      = "broadcast_channel"
	CauseSearchCeiling  = "search_page_ceiling"
	CauseListingCeiling = "listing_page_ceiling"
)

// Cause is one candidate explanation.
type Cause struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// YearCount is one histogram bucket.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Report annotates a run that came up short.
type Report struct {
	Declared  int64   `json:"declared"`
	Retrieved int     `json:"retrieved"`
	Missing   int64   `json:"missing"`
	Percent   float64 `json:"percent"`

	Oldest time.Time `json:"oldest,omitzero"`
	Newest time.Time `json:"newest,omitzero"`
	// Years covers every year from the oldest to the newest record,
	// including empty ones.
	Years   []YearCount `json:"years,omitempty"`
	Average float64     `json:"average_per_year"`
	// Gaps are the years holding fewer than half the average.
	Gaps []YearCount `json:"gaps,omitempty"`

	Causes []Cause `json:"causes"`
}

// Analyze builds a report for in. It returns nil when nothing is missing.
// Videos is only read.
func Analyze(in Input, t Thresholds) *Report {
	missing := in.Declared - int64(len(in.Videos))
	if missing <= 0 {
		return nil
	}

	r := &Report{
		Declared:  in.Declared,
		Retrieved: len(in.Videos),
		Missing:   missing,
		Percent:   float64(missing) / float64(in.Declared) * 100,
	}
	r.histogram(in.Videos)

	if len(in.Videos) > 0 && r.Oldest.Year() > t.EarlyYear {
		r.add(CauseLateStart, "videos published before %d may not be indexed", t.EarlyYear)
	}
	if float64(missing) > float64(len(in.Videos))*t.MissingRatio {
		r.add(CauseUnlisted, "videos may be private, deleted or unlisted")
	}
	if in.QuotaErrors > 0 {
		r.add(CauseQuota, "API quota was exhausted %d times", in.QuotaErrors)
	}
	if t.LargeChannel > 0 && in.Declared > t.LargeChannel {
		r.add(CauseLargeChannel, "the API limits results for channels with more than %d videos", t.LargeChannel)
	}
	if t.HugeChannel > 0 && in.Declared > t.HugeChannel {
		r.add(CauseBroadcast, "broadcast channels often carry non-standard metadata")
	}
	if t.PageCeiling > 0 && in.SearchPages > t.PageCeiling {
		r.add(CauseSearchCeiling, "search walked %d pages, near the undocumented search page limit", in.SearchPages)
	}
	if t.PageCeiling > 0 && in.ListingPages > t.PageCeiling {
		r.add(CauseListingCeiling, "playlist walked %d pages, near the playlist page limit", in.ListingPages)
	}
	return r
}

func (r *Report) add(code, format string, args ...any) {
	r.Causes = append(r.Causes, Cause{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) histogram(videos []youtube.VideoRecord) {
	if len(videos) == 0 {
		return
	}
	counts := make(map[int]int)
	r.Oldest, r.Newest = videos[0].PublishedAt, videos[0].PublishedAt
	for _, v := range videos {
		if v.PublishedAt.Before(r.Oldest) {
			r.Oldest = v.PublishedAt
		}
		if v.PublishedAt.After(r.Newest) {
			r.Newest = v.PublishedAt
		}
		counts[v.PublishedAt.Year()]++
	}

	// The average is over years that hold at least one record.
	r.Average = float64(len(videos)) / float64(len(counts))

	years := make([]int, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Ints(years)
	for y := years[0]; y <= years[len(years)-1]; y++ {
		yc := YearCount{Year: y, Count: counts[y]}
		r.Years = append(r.Years, yc)
		if float64(yc.Count) < r.Average*0.5 {
			r.Gaps = append(r.Gaps, yc)
		}
	}
}
