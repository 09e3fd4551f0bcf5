package ytanalyzer

import (
	"context"

	"github.com/rs/zerolog/log"

	"ytanalyzer/internal/catalog"
	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/enumerate"
	"ytanalyzer/internal/filter"
	"ytanalyzer/internal/youtube"
)

type (
	// Strategy selects how hard a run tries to reach every video.
	Strategy = enumerate.Strategy
	// Result is the outcome of one run.
	Result = enumerate.Result
	// VideoRecord is the processed form of one video.
	VideoRecord = youtube.VideoRecord
	// FilterSpec holds raw filter text; see Filter.
	FilterSpec = filter.Spec
)

// Strategies, from cheapest to most thorough.
const (
	Fast     = enumerate.Fast
	Smart    = enumerate.Smart
	Complete = enumerate.Complete
)

// Analyze resolves channelURL and enumerates its videos with strategy,
// rotating through keys as they run out of quota. Default pacing and
// thresholds apply.
func Analyze(ctx context.Context, channelURL string, strategy Strategy, keys ...string) (*Result, error) {
	pool := credpool.New(keys, credpool.Config{})
	if pool.Size() == 0 {
		return nil, ErrNoCredentials
	}
	engine := enumerate.New(pool, catalog.New(duration.NewCodec(0), log.Logger), enumerate.Options{})
	if _, err := engine.Analyze(ctx, channelURL); err != nil {
		return nil, err
	}
	return engine.Run(ctx, strategy)
}

// Filter returns the videos matching spec, in input order. Clauses that do
// not parse are ignored.
func Filter(videos []VideoRecord, spec FilterSpec) []VideoRecord {
	return filter.New(0).Apply(videos, spec).Videos
}
