// Package credpool manages the set of Data API keys used by an enumeration:
// it spaces outbound calls, builds clients lazily and rotates to the next
// key when one runs out of quota.
package credpool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"ytanalyzer/internal/youtube"
)

// Sentinel errors for pool operations.
var (
	ErrNoCredentials = errors.New("credpool: no credentials configured")
	ErrIndexRange    = errors.New("credpool: credential index out of range")
)

// Default spacing between consecutive remote calls.
const (
	DefaultInterval     = 100 * time.Millisecond
	DefaultBulkInterval = 50 * time.Millisecond
)

// Factory builds a client bound to one key.
type Factory func(ctx context.Context, key string) (youtube.API, error)

// DataAPIFactory returns a Factory producing youtube.DataAPI clients whose
// requests are bounded by timeout.
func DataAPIFactory(timeout time.Duration) Factory {
	return func(ctx context.Context, key string) (youtube.API, error) {
		return youtube.NewDataAPI(ctx, key, timeout)
	}
}

// Config controls pool behavior.
type Config struct {
	// Interval is the minimum gap between two remote calls.
	Interval time.Duration
	// BulkInterval replaces Interval while bulk mode is on.
	BulkInterval time.Duration
	// Factory builds clients. Defaults to DataAPIFactory(0).
	Factory Factory
	// Logger receives rotation events. Defaults to the global logger.
	Logger *zerolog.Logger
}

// Pool is an ordered set of keys with one active key. All methods are safe
// for concurrent use.
type Pool struct {
	mu      sync.Mutex
	keys    []string
	active  int
	client  youtube.API
	factory Factory

	limiter      *rate.Limiter
	interval     time.Duration
	bulkInterval time.Duration
	bulk         bool
	calls        int64

	logger zerolog.Logger
}

// New creates a pool holding keys in order. Blank and repeated keys are
// dropped. The first key starts active.
func New(keys []string, cfg Config) *Pool {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BulkInterval <= 0 {
		cfg.BulkInterval = DefaultBulkInterval
	}
	if cfg.Factory == nil {
		cfg.Factory = DataAPIFactory(0)
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	p := &Pool{
		factory:      cfg.Factory,
		limiter:      rate.NewLimiter(rate.Every(cfg.Interval), 1),
		interval:     cfg.Interval,
		bulkInterval: cfg.BulkInterval,
		logger:       logger.With().Str("component", "credpool").Logger(),
	}
	for _, k := range keys {
		p.add(k)
	}
	return p
}

// Acquire returns a client bound to the active key, building it on first
// use after any change to the pool.
func (p *Pool) Acquire(ctx context.Context) (youtube.API, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		return nil, ErrNoCredentials
	}
	if p.client != nil {
		return p.client, nil
	}

	client, err := p.factory(ctx, p.keys[p.active])
	if err != nil {
		return nil, fmt.Errorf("credpool: build client for key %d: %w", p.active, err)
	}
	p.client = client
	return client, nil
}

// Throttle blocks until the minimum interval since the previous call has
// elapsed, then counts one remote call. It must be called immediately before
// every remote call.
func (p *Pool) Throttle(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return nil
}

// Rotate advances to the next key in round-robin order and drops the bound
// client. It reports false, changing nothing, when fewer than two keys exist.
func (p *Pool) Rotate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) <= 1 {
		p.logger.Warn().Int("keys", len(p.keys)).Msg("no alternate key to rotate to")
		return false
	}
	prev := p.active
	p.active = (p.active + 1) % len(p.keys)
	p.client = nil
	p.logger.Info().
		Int("from", prev+1).
		Int("to", p.active+1).
		Int("keys", len(p.keys)).
		Msg("rotated api key")
	return true
}

// SetBulk switches between the normal and the reduced call interval.
func (p *Pool) SetBulk(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bulk == on {
		return
	}
	p.bulk = on
	interval := p.interval
	if on {
		interval = p.bulkInterval
	}
	p.limiter.SetLimit(rate.Every(interval))
	p.logger.Debug().Bool("bulk", on).Dur("interval", interval).Msg("call interval changed")
}

// Bulk reports whether bulk mode is on.
func (p *Pool) Bulk() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bulk
}

// Add appends key. Blank keys and keys already present are ignored and
// reported as false.
func (p *Pool) Add(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.add(key)
}

func (p *Pool) add(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	for _, k := range p.keys {
		if k == key {
			return false
		}
	}
	p.keys = append(p.keys, key)
	p.client = nil
	return true
}

// Remove deletes the key at index. The active key stays the same key when
// possible; removing the active key makes the next one active.
func (p *Pool) Remove(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.keys) {
		return fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	p.keys = append(p.keys[:index], p.keys[index+1:]...)
	switch {
	case len(p.keys) == 0:
		p.active = 0
	case index < p.active:
		p.active--
	case p.active >= len(p.keys):
		p.active = 0
	}
	p.client = nil
	return nil
}

// Select makes the key at index active.
func (p *Pool) Select(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.keys) {
		return fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	p.active = index
	p.client = nil
	return nil
}

// Keys returns a copy of the keys in order.
func (p *Pool) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Active returns the active index and key. The index is -1 for an empty
// pool.
func (p *Pool) Active() (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return -1, ""
	}
	return p.active, p.keys[p.active]
}

// Size returns the number of keys.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Calls returns the number of remote calls made through Throttle.
func (p *Pool) Calls() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// SetCalls overwrites the call counter, e.g. when a session is restored.
func (p *Pool) SetCalls(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = n
}

// Mask hides all but the edges of a key for display.
func Mask(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..." + key[len(key)-4:]
}
