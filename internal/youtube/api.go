package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"
	ytdata "google.golang.org/api/youtube/v3"
)

// DataAPI implements API on top of the YouTube Data API v3 client. A DataAPI
// is bound to a single credential; the credential pool builds a new one
// after every rotation.
type DataAPI struct {
	service *ytdata.Service
}

// NewDataAPI creates a client authenticated with apiKey. A positive timeout
// bounds every HTTP request.
func NewDataAPI(ctx context.Context, apiKey string, timeout time.Duration, opts ...option.ClientOption) (*DataAPI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	if timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Timeout:   timeout,
			Transport: &keyTransport{key: apiKey, base: http.DefaultTransport},
		}))
	}

	service, err := ytdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &DataAPI{service: service}, nil
}

// keyTransport appends the API key to every request. option.WithAPIKey is
// ignored once a custom HTTP client is supplied.
type keyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *keyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", t.key)
	r.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(r)
}

// Channel fetches the summary of the channel with the given identifier.
func (a *DataAPI) Channel(ctx context.Context, channelID string) (*ChannelSummary, error) {
	resp, err := a.service.Channels.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &APIError{Call: "channels.list", Ref: channelID, Err: err}
	}
	if len(resp.Items) == 0 {
		return nil, &APIError{Call: "channels.list", Ref: channelID, Err: ErrChannelNotFound}
	}
	return channelSummary(resp.Items[0]), nil
}

func channelSummary(ch *ytdata.Channel) *ChannelSummary {
	s := &ChannelSummary{ID: ch.Id}
	if ch.Snippet != nil {
		s.Title = ch.Snippet.Title
		if t, err := time.Parse(time.RFC3339, ch.Snippet.PublishedAt); err == nil {
			s.PublishedAt = t.UTC()
		}
	}
	if ch.Statistics != nil {
		s.DeclaredVideoCount = int64(ch.Statistics.VideoCount)
		s.SubscriberCount = int64(ch.Statistics.SubscriberCount)
		s.SubscribersHidden = ch.Statistics.HiddenSubscriberCount
		s.ViewCount = int64(ch.Statistics.ViewCount)
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		s.UploadsPlaylistID = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	return s
}

// ChannelIDForHandle resolves an @handle.
func (a *DataAPI) ChannelIDForHandle(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(handle, "@")
	resp, err := a.service.Channels.List([]string{"id"}).
		ForHandle(handle).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", &APIError{Call: "channels.list", Ref: "@" + handle, Err: err}
	}
	if len(resp.Items) == 0 {
		return "", &APIError{Call: "channels.list", Ref: "@" + handle, Err: ErrChannelNotFound}
	}
	return resp.Items[0].Id, nil
}

// ChannelIDForUsername resolves a legacy username.
func (a *DataAPI) ChannelIDForUsername(ctx context.Context, username string) (string, error) {
	resp, err := a.service.Channels.List([]string{"id"}).
		ForUsername(username).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", &APIError{Call: "channels.list", Ref: username, Err: err}
	}
	if len(resp.Items) == 0 {
		return "", &APIError{Call: "channels.list", Ref: username, Err: ErrChannelNotFound}
	}
	return resp.Items[0].Id, nil
}

// SearchChannelID returns the first channel matching query.
func (a *DataAPI) SearchChannelID(ctx context.Context, query string) (string, error) {
	resp, err := a.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", &APIError{Call: "search.list", Ref: query, Err: err}
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", &APIError{Call: "search.list", Ref: query, Err: ErrChannelNotFound}
	}
	return resp.Items[0].Snippet.ChannelId, nil
}

// PlaylistPage fetches one page of a playlist.
func (a *DataAPI) PlaylistPage(ctx context.Context, playlistID, pageToken string) (*Page, error) {
	call := a.service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(PageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, &APIError{Call: "playlistItems.list", Ref: playlistID, Err: err}
	}

	page := &Page{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, item.ContentDetails.VideoId)
	}
	return page, nil
}

// SearchPage fetches one page of video results scoped to q.ChannelID.
func (a *DataAPI) SearchPage(ctx context.Context, q SearchQuery, pageToken string) (*Page, error) {
	call := a.service.Search.List([]string{"id"}).
		ChannelId(q.ChannelID).
		Type("video").
		MaxResults(PageSize).
		Context(ctx)
	if q.Order != "" {
		call = call.Order(string(q.Order))
	}
	if !q.PublishedAfter.IsZero() {
		call = call.PublishedAfter(q.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if !q.PublishedBefore.IsZero() {
		call = call.PublishedBefore(q.PublishedBefore.UTC().Format(time.RFC3339))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, &APIError{Call: "search.list", Ref: q.ChannelID, Err: err}
	}

	page := &Page{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, item.Id.VideoId)
	}
	return page, nil
}

// VideoDetails fetches up to PageSize videos in one call.
func (a *DataAPI) VideoDetails(ctx context.Context, ids []string) ([]*ytdata.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > PageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIDs, len(ids), PageSize)
	}

	resp, err := a.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &APIError{Call: "videos.list", Ref: strings.Join(ids, ","), Err: err}
	}
	return resp.Items, nil
}

var _ API = (*DataAPI)(nil)
