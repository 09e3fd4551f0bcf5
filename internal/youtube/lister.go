// Package youtube is the boundary to the YouTube Data API v3: channel
// lookup, paginated listings and video detail batches.
package youtube

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	ytdata "google.golang.org/api/youtube/v3"
)

// Sentinel errors for API operations.
var (
	ErrChannelNotFound = errors.New("youtube: channel not found")
	ErrQuotaExceeded   = errors.New("youtube: quota exceeded")
	ErrInvalidURL      = errors.New("youtube: invalid URL")
	ErrTooManyIDs      = errors.New("youtube: too many ids in one batch")
)

// PageSize is the number of items requested per page. It is also the most
// identifiers a single details call accepts.
const PageSize = 50

// API is the set of remote calls the enumeration engine issues. Each method
// is exactly one remote call.
type API interface {
	// Channel fetches the summary of the channel with the given identifier.
	Channel(ctx context.Context, channelID string) (*ChannelSummary, error)

	// ChannelIDForHandle resolves an @handle (without the @).
	ChannelIDForHandle(ctx context.Context, handle string) (string, error)

	// ChannelIDForUsername resolves a legacy /user/ name.
	ChannelIDForUsername(ctx context.Context, username string) (string, error)

	// SearchChannelID returns the best channel match for free text.
	SearchChannelID(ctx context.Context, query string) (string, error)

	// PlaylistPage fetches one page of a playlist's video identifiers.
	PlaylistPage(ctx context.Context, playlistID, pageToken string) (*Page, error)

	// SearchPage fetches one page of video search results for a channel.
	SearchPage(ctx context.Context, q SearchQuery, pageToken string) (*Page, error)

	// VideoDetails fetches snippet, statistics and contentDetails for up
	// to PageSize videos. Unknown identifiers are silently absent.
	VideoDetails(ctx context.Context, ids []string) ([]*ytdata.Video, error)
}

// Page is one page of video identifiers.
type Page struct {
	VideoIDs      []string
	NextPageToken string
}

// Order is a search result ordering.
type Order string

// Orderings supported by the search endpoint.
const (
	OrderDate      Order = "date"
	OrderViewCount Order = "viewCount"
	OrderRelevance Order = "relevance"
	OrderRating    Order = "rating"
	OrderTitle     Order = "title"
)

// SearchQuery scopes a search to a channel, with an optional publish window
// and ordering. Zero times leave that side of the window open.
type SearchQuery struct {
	ChannelID       string
	Order           Order
	PublishedAfter  time.Time
	PublishedBefore time.Time
}

// ChannelSummary describes a channel. It is immutable once fetched.
type ChannelSummary struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	DeclaredVideoCount int64     `json:"declared_video_count"`
	UploadsPlaylistID  string    `json:"uploads_playlist_id"`
	SubscriberCount    int64     `json:"subscriber_count"`
	SubscribersHidden  bool      `json:"subscribers_hidden"`
	ViewCount          int64     `json:"view_count"`
	PublishedAt        time.Time `json:"published_at"`
}

// VideoRecord is the processed form of one video.
type VideoRecord struct {
	// ID is the YouTube video ID (e.g., "dQw4w9WgXcQ").
	ID string `json:"id"`

	Title string `json:"title"`

	// PublishedAt is the upload time reported by the API, in UTC.
	PublishedAt time.Time `json:"published_at"`

	// DurationSeconds is the video length. Zero when the API reports none.
	DurationSeconds int `json:"duration_seconds"`

	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`

	URL string `json:"url"`
}

// VideoURL returns the canonical watch URL for a video identifier.
func VideoURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// ChannelURL returns the canonical URL for a channel identifier.
func ChannelURL(id string) string {
	return "https://www.youtube.com/channel/" + id
}

// IsQuotaError reports whether err is a credential-level quota rejection.
// The API signals these with HTTP 403.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden
	}
	return false
}

// APIError wraps errors with context about the call that produced them.
type APIError struct {
	Call string // e.g. "playlistItems.list"
	Ref  string // playlist, channel or query the call was scoped to
	Err  error
}

func (e *APIError) Error() string {
	return "youtube: " + e.Call + " " + e.Ref + ": " + e.Err.Error()
}

func (e *APIError) Unwrap() error { return e.Err }
