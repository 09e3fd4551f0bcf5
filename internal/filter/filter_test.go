package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytanalyzer/internal/youtube"
)

func titled(titles ...string) []youtube.VideoRecord {
	out := make([]youtube.VideoRecord, len(titles))
	for i, t := range titles {
		out[i] = youtube.VideoRecord{ID: t, Title: t}
	}
	return out
}

func titles(videos []youtube.VideoRecord) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.Title)
	}
	return out
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want Terms
	}{
		{in: "dogs", want: Terms{Include: []string{"dogs"}}},
		{in: "dogs -cats", want: Terms{Include: []string{"dogs"}, Exclude: []string{"cats"}}},
		{in: `"hot dogs" grill`, want: Terms{Include: []string{"hot dogs", "grill"}}},
		{in: "big cats, small dogs", want: Terms{Include: []string{"big cats", "small dogs"}}},
		{in: `"-not wanted" -`, want: Terms{Include: []string{"-"}, Exclude: []string{"not wanted"}}},
		{in: `-"live show"`, want: Terms{Include: []string{"live show", "-"}}},
		{in: " , ,", want: Terms{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseKeywords(tt.in)
			assert.Equal(t, tt.want.Include, got.Include)
			assert.Equal(t, tt.want.Exclude, got.Exclude)
		})
	}
}

func TestKeywordInclusionOr(t *testing.T) {
	e := New(0)
	videos := titled("Cats and Dogs", "Only Dogs", "No Animals")

	res := e.Apply(videos, Spec{Keywords: "dogs", Mode: ModeOr, WholeWord: true})
	assert.Equal(t, []string{"Cats and Dogs", "Only Dogs"}, titles(res.Videos))
	assert.Equal(t, []string{"keywords: dogs"}, res.Applied)
}

func TestKeywordExclusion(t *testing.T) {
	e := New(0)
	videos := titled("Cats and Dogs", "Only Dogs", "No Animals")

	res := e.Apply(videos, Spec{Keywords: "dogs -cats", Mode: ModeOr, WholeWord: true})
	assert.Equal(t, []string{"Only Dogs"}, titles(res.Videos))

	res = e.Apply(videos, Spec{Keywords: "-cats"})
	assert.Equal(t, []string{"Only Dogs", "No Animals"}, titles(res.Videos))
}

func TestKeywordModes(t *testing.T) {
	e := New(0)
	videos := titled("Go tutorial part 1", "Rust tutorial", "Go news")

	res := e.Apply(videos, Spec{Keywords: "go tutorial"})
	assert.Equal(t, []string{"Go tutorial part 1"}, titles(res.Videos))

	res = e.Apply(videos, Spec{Keywords: "go tutorial", Mode: ModeOr})
	assert.Equal(t, []string{"Go tutorial part 1", "Rust tutorial", "Go news"}, titles(res.Videos))
}

func TestKeywordMatchingFlags(t *testing.T) {
	e := New(0)
	videos := titled("Dogsled racing", "dogs in the park", "DOGS")

	res := e.Apply(videos, Spec{Keywords: "dogs"})
	assert.Equal(t, []string{"Dogsled racing", "dogs in the park", "DOGS"}, titles(res.Videos))

	res = e.Apply(videos, Spec{Keywords: "dogs", WholeWord: true})
	assert.Equal(t, []string{"dogs in the park", "DOGS"}, titles(res.Videos))

	res = e.Apply(videos, Spec{Keywords: "dogs", CaseSensitive: true})
	assert.Equal(t, []string{"dogs in the park"}, titles(res.Videos))

	res = e.Apply(videos, Spec{Keywords: "Dogs", CaseSensitive: true, WholeWord: true})
	assert.Empty(t, res.Videos)
}

func TestWholeWordUnicodeBoundaries(t *testing.T) {
	e := New(0)
	assert.True(t, e.Match("città", "Una città di notte", false, true))
	assert.True(t, e.Match("perché", "Ecco perché", false, true))
	assert.True(t, e.Match("CITTÀ", "una città", false, true))
	assert.False(t, e.Match("caf", "Il mio café preferito", false, true))
	assert.False(t, e.Match("citt", "Una città di notte", false, true))

	res := e.Apply(titled("Una città di notte", "Il mio café preferito"), Spec{Keywords: "città caf", Mode: ModeOr, WholeWord: true})
	assert.Equal(t, []string{"Una città di notte"}, titles(res.Videos))
}

func TestWholeWordEscapesTerm(t *testing.T) {
	e := New(0)
	assert.True(t, e.Match("a.b", "see a.b here", false, true))
	assert.False(t, e.Match("a.b", "see axb here", false, true))
}

func TestMatchIsMemoized(t *testing.T) {
	e := New(0)
	videos := titled("Cats and Dogs", "Only Dogs")
	e.Apply(videos, Spec{Keywords: "dogs"})
	assert.Equal(t, 2, e.MemoLen())
	e.Apply(videos, Spec{Keywords: "dogs"})
	assert.Equal(t, 2, e.MemoLen())

	small := New(1)
	small.Apply(videos, Spec{Keywords: "dogs"})
	assert.Equal(t, 1, small.MemoLen())
}

func TestMinViews(t *testing.T) {
	e := New(0)
	videos := []youtube.VideoRecord{
		{ID: "a", Views: 999},
		{ID: "b", Views: 1000},
		{ID: "c", Views: 25000},
	}

	for _, in := range []string{"1000", "1,000", "1.000", " 1000 "} {
		res := e.Apply(videos, Spec{MinViews: in})
		require.Len(t, res.Videos, 2, in)
		assert.Equal(t, []string{"views >= 1,000"}, res.Applied)
	}

	res := e.Apply(videos, Spec{MinViews: "lots"})
	assert.Len(t, res.Videos, 3)
	assert.Empty(t, res.Applied)
}

func TestDurationRange(t *testing.T) {
	e := New(0)
	videos := []youtube.VideoRecord{
		{ID: "30s", DurationSeconds: 30},
		{ID: "120s", DurationSeconds: 120},
		{ID: "700s", DurationSeconds: 700},
	}
	ids := func(r Result) []string {
		var out []string
		for _, v := range r.Videos {
			out = append(out, v.ID)
		}
		return out
	}

	res := e.Apply(videos, Spec{MinDuration: "1", MaxDuration: "10"})
	assert.Equal(t, []string{"120s"}, ids(res))
	assert.Equal(t, []string{"duration 1:00 to 10:00"}, res.Applied)

	res = e.Apply(videos, Spec{MinDuration: "1:00", MaxDuration: "0:10:00"})
	assert.Equal(t, []string{"120s"}, ids(res))

	res = e.Apply(videos, Spec{MinDuration: "2:00"})
	assert.Equal(t, []string{"120s", "700s"}, ids(res))
	assert.Equal(t, []string{"duration >= 2:00"}, res.Applied)

	res = e.Apply(videos, Spec{MaxDuration: "0.5"})
	assert.Equal(t, []string{"30s"}, ids(res))

	res = e.Apply(videos, Spec{MinDuration: "abc", MaxDuration: "1:2:3:4"})
	assert.Len(t, res.Videos, 3)
	assert.Empty(t, res.Applied)
}

func TestDurationPresets(t *testing.T) {
	e := New(0)
	videos := []youtube.VideoRecord{
		{ID: "short", DurationSeconds: 45},
		{ID: "mid", DurationSeconds: 15 * 60},
		{ID: "long", DurationSeconds: 2 * 3600},
	}

	spec, err := Spec{}.WithPreset("Long")
	require.NoError(t, err)
	res := e.Apply(videos, spec)
	require.Len(t, res.Videos, 1)
	assert.Equal(t, "long", res.Videos[0].ID)

	spec, err = Spec{}.WithPreset("shorts")
	require.NoError(t, err)
	res = e.Apply(videos, spec)
	require.Len(t, res.Videos, 1)
	assert.Equal(t, "short", res.Videos[0].ID)

	_, err = Spec{}.WithPreset("epic")
	assert.Error(t, err)
}

func TestDateRange(t *testing.T) {
	e := New(0)
	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return ts
	}
	videos := []youtube.VideoRecord{
		{ID: "a", PublishedAt: at("2023-12-31T23:59:59Z")},
		{ID: "b", PublishedAt: at("2024-01-01T00:00:00Z")},
		{ID: "c", PublishedAt: at("2024-06-30T18:00:00Z")},
		{ID: "d", PublishedAt: at("2024-07-01T00:00:01Z")},
	}

	res := e.Apply(videos, Spec{StartDate: "2024-01-01", EndDate: "2024-06-30"})
	require.Len(t, res.Videos, 2)
	assert.Equal(t, "b", res.Videos[0].ID)
	assert.Equal(t, "c", res.Videos[1].ID)
	assert.Equal(t, []string{"date 2024-01-01 to 2024-06-30"}, res.Applied)

	res = e.Apply(videos, Spec{StartDate: "01/01/2024", EndDate: "2024-06-30"})
	assert.Len(t, res.Videos, 3)
	assert.Equal(t, []string{"date <= 2024-06-30"}, res.Applied)
}

func TestApplyCombinesClausesAndIsIdempotent(t *testing.T) {
	e := New(0)
	videos := []youtube.VideoRecord{
		{ID: "1", Title: "Dogs at the beach", Views: 5000, DurationSeconds: 300},
		{ID: "2", Title: "Dogs at home", Views: 50, DurationSeconds: 300},
		{ID: "3", Title: "Dogs in space", Views: 9000, DurationSeconds: 4000},
		{ID: "4", Title: "Cats at the beach", Views: 9000, DurationSeconds: 300},
	}
	before := append([]youtube.VideoRecord(nil), videos...)
	spec := Spec{Keywords: "dogs", MinViews: "1000", MaxDuration: "30"}

	first := e.Apply(videos, spec)
	second := e.Apply(videos, spec)
	require.Len(t, first.Videos, 1)
	assert.Equal(t, "1", first.Videos[0].ID)
	assert.Equal(t, first, second)
	assert.Equal(t, before, videos)
	assert.Len(t, first.Applied, 3)
}

func TestApplyEmptySpecKeepsEverything(t *testing.T) {
	e := New(0)
	videos := titled("a", "b")
	res := e.Apply(videos, Spec{})
	assert.Equal(t, videos, res.Videos)
	assert.Empty(t, res.Applied)

	res = e.Apply(nil, Spec{Keywords: "x"})
	assert.Empty(t, res.Videos)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("OR")
	require.NoError(t, err)
	assert.Equal(t, ModeOr, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAnd, m)

	_, err = ParseMode("xor")
	assert.Error(t, err)
}
