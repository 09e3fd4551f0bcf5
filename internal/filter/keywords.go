package filter

import (
	"regexp"
	"strings"
)

var phraseRegex = regexp.MustCompile(`"([^"]+)"`)

// Terms is a parsed keyword clause.
type Terms struct {
	Include []string
	Exclude []string
}

// Empty reports whether the clause has no terms at all.
func (t Terms) Empty() bool {
	return len(t.Include) == 0 && len(t.Exclude) == 0
}

// ParseKeywords splits free text into terms. Quoted phrases are kept whole.
// The rest is split on commas when it contains one and on whitespace
// otherwise. A term starting with '-' excludes what follows it.
func ParseKeywords(text string) Terms {
	var phrases []string
	remaining := text
	for _, m := range phraseRegex.FindAllStringSubmatch(text, -1) {
		phrases = append(phrases, m[1])
		remaining = strings.Replace(remaining, m[0], "", 1)
	}

	var parts []string
	if strings.Contains(remaining, ",") {
		parts = strings.Split(remaining, ",")
	} else {
		parts = strings.Fields(remaining)
	}

	var t Terms
	for _, term := range append(phrases, parts...) {
		term = strings.TrimSpace(term)
		switch {
		case term == "":
		case len(term) > 1 && term[0] == '-':
			t.Exclude = append(t.Exclude, term[1:])
		default:
			t.Include = append(t.Include, term)
		}
	}
	return t
}

type matchKey struct {
	term, title   string
	caseSensitive bool
	wholeWord     bool
}

type patternKey struct {
	term          string
	caseSensitive bool
}

// Match reports whether term occurs in title. Whole-word matching requires
// word boundaries on both sides of the term. Results are memoized.
func (e *Engine) Match(term, title string, caseSensitive, wholeWord bool) bool {
	key := matchKey{term: term, title: title, caseSensitive: caseSensitive, wholeWord: wholeWord}
	if ok, hit := e.matches.Get(key); hit {
		return ok
	}
	ok := e.match(term, title, caseSensitive, wholeWord)
	e.matches.Add(key, ok)
	return ok
}

func (e *Engine) match(term, title string, caseSensitive, wholeWord bool) bool {
	if !caseSensitive {
		term = strings.ToLower(term)
		title = strings.ToLower(title)
	}
	if !wholeWord {
		return strings.Contains(title, term)
	}
	return e.pattern(term, caseSensitive).MatchString(title)
}

const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

func (e *Engine) pattern(term string, caseSensitive bool) *regexp.Regexp {
	key := patternKey{term: term, caseSensitive: caseSensitive}
	if re, ok := e.patterns.Get(key); ok {
		return re
	}
	// \b only knows ASCII word characters, so accented letters would count
	// as boundaries.
	expr := wordStart + regexp.QuoteMeta(term) + wordEnd
	if !caseSensitive {
		expr = `(?i)` + expr
	}
	re := regexp.MustCompile(expr)
	e.patterns.Add(key, re)
	return re
}
