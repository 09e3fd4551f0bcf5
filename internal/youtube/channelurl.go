package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

// RefKind says how a channel reference must be resolved to an identifier.
type RefKind int

const (
	// RefID is a channel identifier that needs no lookup.
	RefID RefKind = iota
	// RefHandle is an @handle.
	RefHandle
	// RefCustom is a /c/ custom URL name.
	RefCustom
	// RefUser is a legacy /user/ name.
	RefUser
	// RefSimple is a bare youtube.com/<name> path.
	RefSimple
	// RefQuery is free text resolved through channel search.
	RefQuery
)

func (k RefKind) String() string {
	switch k {
	case RefID:
		return "id"
	case RefHandle:
		return "handle"
	case RefCustom:
		return "custom"
	case RefUser:
		return "user"
	case RefSimple:
		return "simple"
	case RefQuery:
		return "query"
	default:
		return fmt.Sprintf("RefKind(%d)", int(k))
	}
}

// ChannelRef is a parsed channel reference.
type ChannelRef struct {
	Kind  RefKind
	Value string
}

var (
	channelIDRegex = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

	urlPatterns = []struct {
		re   *regexp.Regexp
		kind RefKind
	}{
		{regexp.MustCompile(`youtube\.com/channel/([a-zA-Z0-9_-]+)`), RefID},
		{regexp.MustCompile(`youtube\.com/c/([a-zA-Z0-9_-]+)`), RefCustom},
		{regexp.MustCompile(`youtube\.com/@([a-zA-Z0-9_.-]+)`), RefHandle},
		{regexp.MustCompile(`youtube\.com/user/([a-zA-Z0-9_-]+)`), RefUser},
		{regexp.MustCompile(`youtube\.com/([a-zA-Z0-9_-]+)/?$`), RefSimple},
	}

	handleRegex = regexp.MustCompile(`^@([a-zA-Z0-9_.-]+)$`)

	// reservedPaths are site pages that a bare youtube.com/<name> URL can
	// never name a channel with.
	reservedPaths = map[string]bool{
		"watch": true, "playlist": true, "results": true, "feed": true,
		"shorts": true, "live": true, "embed": true, "channel": true,
		"c": true, "user": true,
	}
)

// ParseChannelRef classifies a channel URL, handle, identifier or search
// text.
func ParseChannelRef(input string) (ChannelRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return ChannelRef{}, fmt.Errorf("%w: empty channel reference", ErrInvalidURL)
	}

	// Drop query strings and fragments so they never end up in a name.
	trimmed := input
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}

	if channelIDRegex.MatchString(trimmed) {
		return ChannelRef{Kind: RefID, Value: trimmed}, nil
	}
	if m := handleRegex.FindStringSubmatch(trimmed); m != nil {
		return ChannelRef{Kind: RefHandle, Value: m[1]}, nil
	}

	for _, p := range urlPatterns {
		if m := p.re.FindStringSubmatch(trimmed); m != nil {
			if p.kind == RefSimple && reservedPaths[strings.ToLower(m[1])] {
				break
			}
			return ChannelRef{Kind: p.kind, Value: m[1]}, nil
		}
	}

	if strings.Contains(trimmed, "youtube.com") || strings.Contains(trimmed, "://") {
		return ChannelRef{}, fmt.Errorf("%w: cannot resolve channel from %q", ErrInvalidURL, input)
	}
	return ChannelRef{Kind: RefQuery, Value: input}, nil
}
