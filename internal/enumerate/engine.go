// Package enumerate drives the listing and search walkers that collect every
// video of a channel within a bounded number of remote calls.
package enumerate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ytanalyzer/internal/catalog"
	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/diagnose"
	"ytanalyzer/internal/youtube"
)

// Event is a one-way progress notification.
type Event struct {
	Time      time.Time `json:"time"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	Retrieved int       `json:"retrieved"`
	Declared  int64     `json:"declared"`
	Calls     int64     `json:"calls"`
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Tuning     *Tuning
	Thresholds *diagnose.Thresholds
	Logger     *zerolog.Logger
	// Observer receives progress events on the enumerating goroutine. It
	// must not block.
	Observer func(Event)
	// Clock returns the current time. Year and month sweeps are anchored
	// on it.
	Clock func() time.Time
}

// Engine owns one channel analysis: the credential pool, the record cache,
// the counters and the listing cursor. Apart from Snapshot, its methods must
// not be called concurrently; Runner enforces that for background use.
type Engine struct {
	pool       *credpool.Pool
	cache      *catalog.Cache
	tuning     Tuning
	thresholds diagnose.Thresholds
	logger     zerolog.Logger
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error

	mu         sync.RWMutex
	channelURL string
	channel    *youtube.ChannelSummary
	counters   Counters
	state      State
	observer   func(Event)

	// Run-scoped; only touched by the enumerating goroutine.
	seen        map[string]struct{}
	exhausted   bool
	quotaStreak int
}

// New creates an engine over pool and cache.
func New(pool *credpool.Pool, cache *catalog.Cache, opts Options) *Engine {
	e := &Engine{
		pool:       pool,
		cache:      cache,
		tuning:     DefaultTuning(),
		thresholds: diagnose.DefaultThresholds(),
		logger:     log.Logger,
		now:        time.Now,
		sleep:      sleepContext,
		observer:   opts.Observer,
		seen:       make(map[string]struct{}),
	}
	if opts.Tuning != nil {
		e.tuning = *opts.Tuning
	}
	if opts.Thresholds != nil {
		e.thresholds = *opts.Thresholds
	}
	if opts.Logger != nil {
		e.logger = *opts.Logger
	}
	if opts.Clock != nil {
		e.now = opts.Clock
	}
	e.logger = e.logger.With().Str("component", "enumerate").Logger()
	return e
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Analyze resets the engine, resolves channelURL and fetches the channel
// summary. The previous channel's records, counters and cursor are dropped
// before any remote call is made.
func (e *Engine) Analyze(ctx context.Context, channelURL string) (*youtube.ChannelSummary, error) {
	e.reset()

	ref, err := youtube.ParseChannelRef(channelURL)
	if err != nil {
		return nil, err
	}

	id, err := e.resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve channel %q: %w", channelURL, err)
	}

	var summary *youtube.ChannelSummary
	err = e.call(ctx, func(ctx context.Context, api youtube.API) error {
		s, err := api.Channel(ctx, id)
		summary = s
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", id, err)
	}
	if summary.UploadsPlaylistID == "" && len(summary.ID) > 2 && summary.ID[:2] == "UC" {
		summary.UploadsPlaylistID = "UU" + summary.ID[2:]
	}

	e.mu.Lock()
	e.channelURL = channelURL
	e.channel = summary
	e.mu.Unlock()

	e.logger.Info().
		Str("channel_id", summary.ID).
		Str("title", summary.Title).
		Int64("declared", summary.DeclaredVideoCount).
		Msg("channel resolved")
	cp := *summary
	return &cp, nil
}

func (e *Engine) reset() {
	e.cache.Reset()
	e.pool.SetCalls(0)

	e.mu.Lock()
	e.channelURL = ""
	e.channel = nil
	e.counters = Counters{}
	e.state.Reset()
	e.mu.Unlock()

	e.seen = make(map[string]struct{})
	e.exhausted = false
	e.quotaStreak = 0
}

// resolve turns a parsed reference into a channel identifier. Handle and
// username lookups fall back to a channel search when they find nothing.
func (e *Engine) resolve(ctx context.Context, ref youtube.ChannelRef) (string, error) {
	lookup := func(fn func(context.Context, youtube.API) (string, error)) (string, error) {
		var id string
		err := e.call(ctx, func(ctx context.Context, api youtube.API) error {
			v, err := fn(ctx, api)
			id = v
			return err
		})
		return id, err
	}
	search := func() (string, error) {
		return lookup(func(ctx context.Context, api youtube.API) (string, error) {
			return api.SearchChannelID(ctx, ref.Value)
		})
	}

	switch ref.Kind {
	case youtube.RefID:
		return ref.Value, nil
	case youtube.RefHandle, youtube.RefUser:
		e.mu.RLock()
		otherErrors, lastError := e.counters.OtherErrors, e.counters.LastError
		e.mu.RUnlock()

		id, err := lookup(func(ctx context.Context, api youtube.API) (string, error) {
			if ref.Kind == youtube.RefHandle {
				return api.ChannelIDForHandle(ctx, ref.Value)
			}
			return api.ChannelIDForUsername(ctx, ref.Value)
		})
		if err == nil && id != "" {
			return id, nil
		}
		if errors.Is(err, ErrQuotaExhausted) || ctx.Err() != nil {
			return "", err
		}
		e.logger.Debug().Err(err).Str("ref", ref.Value).Str("kind", ref.Kind.String()).Msg("direct lookup failed, searching")
		id, err = search()
		if err == nil {
			// The search recovered from the miss, so it is not a run error.
			e.mu.Lock()
			e.counters.OtherErrors, e.counters.LastError = otherErrors, lastError
			e.mu.Unlock()
		}
		return id, err
	default:
		return search()
	}
}

// Channel returns the analyzed channel, or nil.
func (e *Engine) Channel() *youtube.ChannelSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.channel == nil {
		return nil
	}
	cp := *e.channel
	return &cp
}

// Snapshot is a read-only copy of the engine's state.
type Snapshot struct {
	ChannelURL string                  `json:"channel_url"`
	Channel    *youtube.ChannelSummary `json:"channel,omitempty"`
	Videos     []youtube.VideoRecord   `json:"videos"`
	Counters   Counters                `json:"counters"`
	State      State                   `json:"state"`
	Calls      int64                   `json:"calls"`
}

// Snapshot copies the current state. It is safe to call while a run is in
// progress.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	s := Snapshot{
		ChannelURL: e.channelURL,
		Counters:   e.counters.Clone(),
		State:      e.state,
	}
	if e.channel != nil {
		cp := *e.channel
		s.Channel = &cp
	}
	e.mu.RUnlock()

	s.Videos = e.cache.Records()
	s.Calls = e.pool.Calls()
	return s
}

// Restore replaces the engine's state with s, e.g. from a saved session.
// The cache is rebuilt from s.Videos.
func (e *Engine) Restore(s Snapshot) {
	e.cache.Restore(s.Videos)
	e.pool.SetCalls(s.Calls)

	e.mu.Lock()
	e.channelURL = s.ChannelURL
	e.channel = nil
	if s.Channel != nil {
		cp := *s.Channel
		e.channel = &cp
	}
	e.counters = s.Counters.Clone()
	e.state = s.State
	e.mu.Unlock()

	e.seen = make(map[string]struct{})
	e.exhausted = false
	e.quotaStreak = 0
}

func (e *Engine) swapObserver(fn func(Event)) func(Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.observer
	e.observer = fn
	return prev
}

func (e *Engine) emit(phase, format string, args ...any) {
	e.mu.RLock()
	observer := e.observer
	var declared int64
	if e.channel != nil {
		declared = e.channel.DeclaredVideoCount
	}
	e.mu.RUnlock()

	if observer == nil {
		return
	}
	observer(Event{
		Time:      e.now(),
		Phase:     phase,
		Message:   fmt.Sprintf(format, args...),
		Retrieved: e.cache.Len(),
		Declared:  declared,
		Calls:     e.pool.Calls(),
	})
}

func (e *Engine) addStrategy(label string) {
	e.mu.Lock()
	e.counters.Strategies = append(e.counters.Strategies, label)
	e.mu.Unlock()
}

func (e *Engine) quotaErrors() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.counters.QuotaErrors
}

// Completeness is retrieved as a percentage of declared. A channel that
// declares no videos is complete.
func Completeness(retrieved int, declared int64) float64 {
	if declared <= 0 {
		return 100
	}
	if retrieved <= 0 {
		return 0
	}
	return float64(retrieved) / float64(declared) * 100
}
