// Package filter narrows a retrieved video list by keyword, view count,
// duration and publish date.
package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/youtube"
)

// DefaultMemoSize bounds the keyword match memo.
const DefaultMemoSize = 10000

const patternCacheSize = 256

// DateLayout is the accepted date format.
const DateLayout = "2006-01-02"

// Mode combines include terms.
type Mode string

const (
	ModeAnd Mode = "and"
	ModeOr  Mode = "or"
)

// ParseMode reads a mode name, case-insensitively. Blank means ModeAnd.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAnd, "":
		return ModeAnd, nil
	case ModeOr:
		return ModeOr, nil
	}
	return "", fmt.Errorf("filter: unknown mode %q", s)
}

// Spec holds the raw filter text. Every field is optional; a field that
// does not parse is ignored.
type Spec struct {
	Keywords      string `json:"keywords,omitempty" yaml:"keywords"`
	Mode          Mode   `json:"mode,omitempty" yaml:"mode"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" yaml:"case_sensitive"`
	WholeWord     bool   `json:"whole_word,omitempty" yaml:"whole_word"`

	// MinViews accepts thousands separators ("1,000" or "1.000").
	MinViews string `json:"min_views,omitempty" yaml:"min_views"`

	// Duration bounds: bare minutes, M:SS or H:MM:SS.
	MinDuration string `json:"min_duration,omitempty" yaml:"min_duration"`
	MaxDuration string `json:"max_duration,omitempty" yaml:"max_duration"`

	// Date bounds, YYYY-MM-DD, both inclusive.
	StartDate string `json:"start_date,omitempty" yaml:"start_date"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date"`
}

// Preset is a named duration range.
type Preset struct {
	Name        string
	MinDuration string
	MaxDuration string
}

// Presets are the stock duration ranges, in minutes.
var Presets = []Preset{
	{Name: "shorts", MinDuration: "0", MaxDuration: "1"},
	{Name: "short", MinDuration: "1", MaxDuration: "10"},
	{Name: "medium", MinDuration: "10", MaxDuration: "30"},
	{Name: "long", MinDuration: "30"},
}

// WithPreset returns s with the duration bounds of the named preset.
func (s Spec) WithPreset(name string) (Spec, error) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			s.MinDuration, s.MaxDuration = p.MinDuration, p.MaxDuration
			return s, nil
		}
	}
	return s, fmt.Errorf("filter: unknown preset %q", name)
}

// Result is the outcome of Apply.
type Result struct {
	Videos []youtube.VideoRecord
	// Applied describes each clause that was active, in evaluation order.
	Applied []string
}

// Engine applies specs. It is safe for concurrent use.
type Engine struct {
	matches  *lru.Cache[matchKey, bool]
	patterns *lru.Cache[patternKey, *regexp.Regexp]
	printer  *message.Printer
}

// New returns an engine whose match memo holds up to size entries.
func New(size int) *Engine {
	if size <= 0 {
		size = DefaultMemoSize
	}
	matches, err := lru.New[matchKey, bool](size)
	if err != nil {
		panic(fmt.Sprintf("filter: match memo: %v", err))
	}
	patterns, err := lru.New[patternKey, *regexp.Regexp](patternCacheSize)
	if err != nil {
		panic(fmt.Sprintf("filter: pattern cache: %v", err))
	}
	return &Engine{
		matches:  matches,
		patterns: patterns,
		printer:  message.NewPrinter(language.English),
	}
}

// MemoLen returns the number of memoized matches.
func (e *Engine) MemoLen() int {
	return e.matches.Len()
}

type predicate func(v *youtube.VideoRecord) bool

// Apply returns the videos passing every active clause of spec, in input
// order. The input slice is not modified. Clauses are parsed from scratch on
// every call.
func (e *Engine) Apply(videos []youtube.VideoRecord, spec Spec) Result {
	var preds []predicate
	var applied []string

	if kw := strings.TrimSpace(spec.Keywords); kw != "" {
		if terms := ParseKeywords(kw); !terms.Empty() {
			preds = append(preds, e.keywordPredicate(terms, spec))
			applied = append(applied, "keywords: "+kw)
		}
	}

	if minViews, ok := parseViews(spec.MinViews); ok {
		preds = append(preds, func(v *youtube.VideoRecord) bool { return v.Views >= minViews })
		applied = append(applied, e.printer.Sprintf("views >= %d", minViews))
	}

	minDur, hasMin := duration.ParseInput(spec.MinDuration)
	maxDur, hasMax := duration.ParseInput(spec.MaxDuration)
	if hasMin || hasMax {
		preds = append(preds, func(v *youtube.VideoRecord) bool {
			if hasMin && v.DurationSeconds < minDur {
				return false
			}
			return !hasMax || v.DurationSeconds <= maxDur
		})
		applied = append(applied, describeRange("duration", hasMin, hasMax,
			duration.Format(minDur), duration.Format(maxDur)))
	}

	start, hasStart := parseDate(spec.StartDate)
	end, hasEnd := parseDate(spec.EndDate)
	if hasStart || hasEnd {
		preds = append(preds, func(v *youtube.VideoRecord) bool {
			day := dayOf(v.PublishedAt)
			if hasStart && day.Before(start) {
				return false
			}
			return !hasEnd || !day.After(end)
		})
		applied = append(applied, describeRange("date", hasStart, hasEnd,
			start.Format(DateLayout), end.Format(DateLayout)))
	}

	out := make([]youtube.VideoRecord, 0, len(videos))
	for i := range videos {
		if keep(&videos[i], preds) {
			out = append(out, videos[i])
		}
	}
	return Result{Videos: out, Applied: applied}
}

func keep(v *youtube.VideoRecord, preds []predicate) bool {
	for _, p := range preds {
		if !p(v) {
			return false
		}
	}
	return true
}

func (e *Engine) keywordPredicate(terms Terms, spec Spec) predicate {
	mode := spec.Mode
	if mode != ModeOr {
		mode = ModeAnd
	}
	return func(v *youtube.VideoRecord) bool {
		for _, ex := range terms.Exclude {
			if e.Match(ex, v.Title, spec.CaseSensitive, spec.WholeWord) {
				return false
			}
		}
		if len(terms.Include) == 0 {
			return true
		}
		for _, in := range terms.Include {
			hit := e.Match(in, v.Title, spec.CaseSensitive, spec.WholeWord)
			if mode == ModeOr && hit {
				return true
			}
			if mode == ModeAnd && !hit {
				return false
			}
		}
		return mode == ModeAnd
	}
}

func parseViews(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	text = strings.NewReplacer(",", "", ".", "").Replace(text)
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseDate(text string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// dayOf truncates t to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func describeRange(name string, hasMin, hasMax bool, lo, hi string) string {
	switch {
	case hasMin && hasMax:
		return fmt.Sprintf("%s %s to %s", name, lo, hi)
	case hasMin:
		return fmt.Sprintf("%s >= %s", name, lo)
	default:
		return fmt.Sprintf("%s <= %s", name, hi)
	}
}
