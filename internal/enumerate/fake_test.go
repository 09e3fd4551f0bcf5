package enumerate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	ytdata "google.golang.org/api/youtube/v3"

	"ytanalyzer/internal/catalog"
	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/youtube"
)

const testChannelID = "UCabcdefghijklmnopqrstuv"

var testChannelURL = "https://www.youtube.com/channel/" + testChannelID

// world is an in-memory channel served through per-key fake clients.
type world struct {
	mu sync.Mutex

	channel        youtube.ChannelSummary
	videos         map[string]*ytdata.Video
	published      map[string]time.Time
	playlist       []string
	handles        map[string]string
	searchChannels map[string]string

	// budget is the number of calls each key may make before it returns
	// quota errors. Keys without an entry are unlimited.
	budget map[string]int
	// failPlaylist maps a page token to the number of times it fails.
	failPlaylist map[string]int
	// failDetails maps the first identifier of a details batch to the
	// number of times that batch fails.
	failDetails map[string]int
	// failSearch, when set, fails every search page whose query it accepts.
	failSearch func(youtube.SearchQuery) bool
	// block, when set, holds every playlist call until it is closed.
	block chan struct{}
	// entered, when set, receives a value as a blocked playlist call starts
	// waiting.
	entered chan struct{}

	playlistTokens []string
	queries        []youtube.SearchQuery
	detailCalls    int
	detailBatches  []string
	keysUsed       []string
}

func newWorld(declared int64) *world {
	return &world{
		channel: youtube.ChannelSummary{
			ID:                 testChannelID,
			Title:              "Test Channel",
			DeclaredVideoCount: declared,
		},
		videos:         make(map[string]*ytdata.Video),
		published:      make(map[string]time.Time),
		handles:        make(map[string]string),
		searchChannels: make(map[string]string),
		budget:         make(map[string]int),
		failPlaylist:   make(map[string]int),
		failDetails:    make(map[string]int),
	}
}

// addVideos creates n videos, newest first, one step apart. Listed videos
// are appended to the uploads playlist; the others are only searchable.
func (w *world) addVideos(prefix string, n int, newest time.Time, step time.Duration, listed bool) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s%04d", prefix, i)
		at := newest.Add(-time.Duration(i) * step)
		w.videos[id] = &ytdata.Video{
			Id: id,
			Snippet: &ytdata.VideoSnippet{
				Title:       "Video " + id,
				PublishedAt: at.Format(time.RFC3339),
			},
			Statistics:     &ytdata.VideoStatistics{ViewCount: uint64(i * 10)},
			ContentDetails: &ytdata.VideoContentDetails{Duration: "PT3M"},
		}
		w.published[id] = at
		if listed {
			w.playlist = append(w.playlist, id)
		}
		ids = append(ids, id)
	}
	return ids
}

func (w *world) factory(_ context.Context, key string) (youtube.API, error) {
	return &fakeClient{w: w, key: key}, nil
}

func (w *world) spend(key string) error {
	w.keysUsed = append(w.keysUsed, key)
	left, limited := w.budget[key]
	if !limited {
		return nil
	}
	if left <= 0 {
		return &googleapi.Error{Code: 403, Message: "quotaExceeded"}
	}
	w.budget[key] = left - 1
	return nil
}

func paginate(ids []string, token, prefix string) (*youtube.Page, error) {
	offset := 0
	if token != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(token, prefix))
		if err != nil {
			return nil, fmt.Errorf("bad token %q", token)
		}
		offset = n
	}
	end := min(offset+youtube.PageSize, len(ids))
	page := &youtube.Page{VideoIDs: append([]string(nil), ids[min(offset, end):end]...)}
	if end < len(ids) {
		page.NextPageToken = prefix + strconv.Itoa(end)
	}
	return page, nil
}

type fakeClient struct {
	w   *world
	key string
}

func (c *fakeClient) Channel(_ context.Context, id string) (*youtube.ChannelSummary, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if err := c.w.spend(c.key); err != nil {
		return nil, err
	}
	if id != c.w.channel.ID {
		return nil, youtube.ErrChannelNotFound
	}
	ch := c.w.channel
	return &ch, nil
}

func (c *fakeClient) ChannelIDForHandle(_ context.Context, handle string) (string, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if err := c.w.spend(c.key); err != nil {
		return "", err
	}
	if id, ok := c.w.handles[handle]; ok {
		return id, nil
	}
	return "", youtube.ErrChannelNotFound
}

func (c *fakeClient) ChannelIDForUsername(ctx context.Context, name string) (string, error) {
	return c.ChannelIDForHandle(ctx, name)
}

func (c *fakeClient) SearchChannelID(_ context.Context, query string) (string, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if err := c.w.spend(c.key); err != nil {
		return "", err
	}
	if id, ok := c.w.searchChannels[query]; ok {
		return id, nil
	}
	return "", youtube.ErrChannelNotFound
}

func (c *fakeClient) PlaylistPage(ctx context.Context, playlistID, token string) (*youtube.Page, error) {
	c.w.mu.Lock()
	block, entered := c.w.block, c.w.entered
	c.w.mu.Unlock()
	if block != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	c.w.playlistTokens = append(c.w.playlistTokens, token)
	if err := c.w.spend(c.key); err != nil {
		return nil, err
	}
	if playlistID != "UU"+strings.TrimPrefix(c.w.channel.ID, "UC") {
		return nil, fmt.Errorf("unknown playlist %q", playlistID)
	}
	if n := c.w.failPlaylist[token]; n > 0 {
		c.w.failPlaylist[token] = n - 1
		return nil, errors.New("backend error")
	}
	return paginate(c.w.playlist, token, "p")
}

func (c *fakeClient) SearchPage(_ context.Context, q youtube.SearchQuery, token string) (*youtube.Page, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	c.w.queries = append(c.w.queries, q)
	if err := c.w.spend(c.key); err != nil {
		return nil, err
	}
	if c.w.failSearch != nil && c.w.failSearch(q) {
		return nil, &googleapi.Error{Code: 500, Message: "backendError"}
	}

	var ids []string
	for id, at := range c.w.published {
		if !q.PublishedAfter.IsZero() && at.Before(q.PublishedAfter) {
			continue
		}
		if !q.PublishedBefore.IsZero() && !at.Before(q.PublishedBefore) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := c.w.published[ids[i]], c.w.published[ids[j]]
		if a.Equal(b) {
			return ids[i] < ids[j]
		}
		return a.After(b)
	})
	return paginate(ids, token, "s")
}

func (c *fakeClient) VideoDetails(_ context.Context, ids []string) ([]*ytdata.Video, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	c.w.detailCalls++
	if err := c.w.spend(c.key); err != nil {
		return nil, err
	}
	if len(ids) > youtube.PageSize {
		return nil, youtube.ErrTooManyIDs
	}
	if len(ids) > 0 {
		c.w.detailBatches = append(c.w.detailBatches, ids[0])
		if n := c.w.failDetails[ids[0]]; n > 0 {
			c.w.failDetails[ids[0]] = n - 1
			return nil, &googleapi.Error{Code: 500, Message: "backendError"}
		}
	}
	var out []*ytdata.Video
	for _, id := range ids {
		if v, ok := c.w.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

var _ youtube.API = (*fakeClient)(nil)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newTestEngine builds an engine over w with no pauses between calls.
func newTestEngine(t *testing.T, w *world, keys []string, tune func(*Tuning), opts ...func(*Options)) (*Engine, *credpool.Pool) {
	t.Helper()
	logger := zerolog.Nop()

	pool := credpool.New(keys, credpool.Config{
		Interval:     time.Microsecond,
		BulkInterval: time.Microsecond,
		Factory:      w.factory,
		Logger:       &logger,
	})

	tuning := DefaultTuning()
	tuning.RotationPause = 0
	if tune != nil {
		tune(&tuning)
	}
	o := Options{Tuning: &tuning, Logger: &logger}
	for _, fn := range opts {
		fn(&o)
	}
	return New(pool, catalog.New(duration.NewCodec(0), logger), o), pool
}

func assertNewestFirst(t *testing.T, videos []youtube.VideoRecord) {
	t.Helper()
	for i := 1; i < len(videos); i++ {
		if videos[i-1].PublishedAt.Before(videos[i].PublishedAt) {
			t.Fatalf("videos[%d] (%s) is older than videos[%d] (%s)",
				i-1, videos[i-1].PublishedAt, i, videos[i].PublishedAt)
		}
	}
}

func assertUnique(t *testing.T, videos []youtube.VideoRecord) {
	t.Helper()
	seen := make(map[string]bool, len(videos))
	for _, v := range videos {
		if seen[v.ID] {
			t.Fatalf("duplicate record %s", v.ID)
		}
		seen[v.ID] = true
	}
}
