// Package duration converts between the Data API's ISO 8601 duration
// encoding and integer seconds.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the parse memo table.
const DefaultCacheSize = 1000

// isoPattern matches the encodings the API serves, e.g. PT1H2M3S, PT45S,
// P1DT2H. Every field is optional.
var isoPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// Codec parses and formats durations. Parse results are memoized since the
// same strings repeat across a channel's catalog.
type Codec struct {
	memo *lru.Cache[string, int]
}

// NewCodec returns a codec whose memo table holds at most size entries.
// A non-positive size selects DefaultCacheSize.
func NewCodec(size int) *Codec {
	if size <= 0 {
		size = DefaultCacheSize
	}
	memo, err := lru.New[string, int](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Codec{memo: memo}
}

// Parse returns the number of seconds in encoded. Malformed input yields 0.
func (c *Codec) Parse(encoded string) int {
	if v, ok := c.memo.Get(encoded); ok {
		return v
	}
	v := parse(encoded)
	c.memo.Add(encoded, v)
	return v
}

// Len reports how many encodings are memoized.
func (c *Codec) Len() int {
	return c.memo.Len()
}

func parse(encoded string) int {
	m := isoPattern.FindStringSubmatch(encoded)
	if m == nil {
		return 0
	}
	days := atoi(m[1])
	hours := atoi(m[2])
	minutes := atoi(m[3])
	seconds := atoi(m[4])
	return days*86400 + hours*3600 + minutes*60 + seconds
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Format renders seconds as H:MM:SS when there is at least one hour,
// otherwise M:SS. Negative values render as 0:00.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseInput reads a user-supplied bound: a bare number of minutes
// (fractions allowed), M:SS or H:MM:SS. Blank or invalid text reports false.
func ParseInput(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	if !strings.Contains(text, ":") {
		minutes, err := strconv.ParseFloat(text, 64)
		if err != nil || minutes < 0 {
			return 0, false
		}
		return int(minutes * 60), true
	}

	parts := strings.Split(text, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
