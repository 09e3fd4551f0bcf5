package enumerate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ytanalyzer/internal/diagnose"
	"ytanalyzer/internal/youtube"
)

// Strategy selects how hard a run tries to reach every video.
type Strategy string

// Strategies, from cheapest to most thorough.
const (
	Fast     Strategy = "fast"
	Smart    Strategy = "smart"
	Complete Strategy = "complete"
)

// ParseStrategy parses a strategy name, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Fast:
		return Fast, nil
	case Smart, "":
		return Smart, nil
	case Complete:
		return Complete, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Describe returns a one-line description for display.
func (s Strategy) Describe() string {
	switch s {
	case Fast:
		return "uploads playlist only, most recent videos"
	case Smart:
		return "playlist plus targeted search, sized to the channel"
	case Complete:
		return "playlist plus exhaustive search by year, ordering and month; many API calls"
	}
	return string(s)
}

// Result is the outcome of one run.
type Result struct {
	Strategy     Strategy               `json:"strategy"`
	Channel      youtube.ChannelSummary `json:"channel"`
	Videos       []youtube.VideoRecord  `json:"videos"`
	Declared     int64                  `json:"declared"`
	Retrieved    int                    `json:"retrieved"`
	Completeness float64                `json:"completeness"`
	Calls        int64                  `json:"calls"`
	Counters     Counters               `json:"counters"`
	Report       *diagnose.Report       `json:"report,omitempty"`
	// QuotaExhausted is set when the run ended because no credential had
	// quota left.
	QuotaExhausted bool          `json:"quota_exhausted"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Run executes strategy against the analyzed channel. The working list is
// sorted newest first afterwards, even when the run fails; the returned
// Result then describes the partial dataset alongside the error.
func (e *Engine) Run(ctx context.Context, strategy Strategy) (*Result, error) {
	ch := e.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	switch strategy {
	case Fast, Smart, Complete:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	start := e.now()
	e.seen = make(map[string]struct{})
	e.exhausted = false
	e.quotaStreak = 0
	e.addStrategy(string(strategy))
	e.warnLargeChannel(ch)

	e.logger.Info().
		Str("strategy", string(strategy)).
		Str("channel_id", ch.ID).
		Int64("declared", ch.DeclaredVideoCount).
		Msg("enumeration started")

	var err error
	switch strategy {
	case Fast:
		err = e.walkListing(ctx, ch, e.tuning.FastListingPages, listingLabel(e.tuning.FastListingPages))
	case Smart:
		err = e.runSmart(ctx, ch)
	case Complete:
		err = e.runComplete(ctx, ch)
	}

	e.cache.SortByPublishedDesc()
	res := e.result(strategy, ch, start)

	ev := e.logger.Info()
	if err != nil {
		ev = e.logger.Error().Err(err)
	}
	ev.Int("retrieved", res.Retrieved).
		Float64("completeness", res.Completeness).
		Int64("calls", res.Calls).
		Msg("enumeration finished")
	e.emit("done", "%d of %d videos (%.1f%%) with %d API calls", res.Retrieved, res.Declared, res.Completeness, res.Calls)

	return res, err
}

func listingLabel(maxPages int) string {
	return fmt.Sprintf("playlist (max %d pages)", maxPages)
}

func (e *Engine) warnLargeChannel(ch *youtube.ChannelSummary) {
	n := ch.DeclaredVideoCount
	switch {
	case e.tuning.HugeChannelWarning > 0 && n > e.tuning.HugeChannelWarning:
		e.emit("warning", "channel declares %d videos; search results are capped by the API and full retrieval is unlikely", n)
	case e.tuning.LargeChannelWarning > 0 && n > e.tuning.LargeChannelWarning:
		e.emit("warning", "channel declares %d videos; retrieval may take many API calls", n)
	}
}

// below reports whether fewer than ratio*declared records were retrieved.
func (e *Engine) below(ch *youtube.ChannelSummary, ratio float64) bool {
	return float64(e.cache.Len()) < float64(ch.DeclaredVideoCount)*ratio
}

func (e *Engine) runSmart(ctx context.Context, ch *youtube.ChannelSummary) error {
	t := e.tuning
	n := ch.DeclaredVideoCount

	switch {
	case n <= t.SmallChannel:
		return e.walkListing(ctx, ch, t.SmartSmallListingPages, listingLabel(t.SmartSmallListingPages))

	case n <= t.MediumChannel:
		if err := e.walkListing(ctx, ch, t.SmartMediumListingPages, listingLabel(t.SmartMediumListingPages)); err != nil {
			return err
		}
		if e.below(ch, t.SmartMediumSearchBelow) {
			e.emit("search", "supplementing with search (%d of %d)", e.cache.Len(), n)
			_, err := e.walkSearch(ctx, facet{
				label:      "search generic",
				query:      youtube.SearchQuery{ChannelID: ch.ID, Order: youtube.OrderDate},
				maxPages:   (t.GenericSearchMaxResults + youtube.PageSize - 1) / youtube.PageSize,
				minNew:     1,
				maxResults: t.GenericSearchMaxResults,
			})
			return err
		}
		return nil

	default:
		if err := e.walkListing(ctx, ch, t.SmartLargeListingPages, listingLabel(t.SmartLargeListingPages)); err != nil {
			return err
		}
		if e.below(ch, t.SmartLargeSearchBelow) {
			e.emit("search", "optimized search for a large channel (%d of %d)", e.cache.Len(), n)
			return e.searchOptimized(ctx, ch)
		}
		return nil
	}
}

func (e *Engine) runComplete(ctx context.Context, ch *youtube.ChannelSummary) error {
	t := e.tuning
	e.pool.SetBulk(true)
	defer e.pool.SetBulk(false)

	if err := e.walkListing(ctx, ch, t.CompleteListingPages, listingLabel(t.CompleteListingPages)); err != nil {
		return err
	}
	if e.below(ch, t.CompleteSearchBelow) {
		e.emit("search", "complete mode: this may take a long time and many API calls")
		return e.searchComprehensive(ctx, ch)
	}
	return nil
}

// searchOptimized sweeps recent years newest first, then a few alternate
// orderings, each bounded by a yield ceiling.
func (e *Engine) searchOptimized(ctx context.Context, ch *youtube.ChannelSummary) error {
	t := e.tuning
	declared := float64(ch.DeclaredVideoCount)
	current := e.now().Year()

	yearCeiling := min(declared*t.OptimizedYearRatio, float64(t.OptimizedYearCap))
	floor := max(t.OptimizedYearFloor, current-t.OptimizedYears)
	for year := current; year > floor; year-- {
		if float64(e.cache.Len()) > yearCeiling || e.exhausted {
			break
		}
		if _, err := e.walkSearch(ctx, yearFacet(ch.ID, year, t.OptimizedYearPages, t.YearMinNew)); err != nil {
			return err
		}
	}

	orderCeiling := min(declared*t.OptimizedOrderRatio, float64(t.OptimizedOrderCap))
	for _, order := range t.OptimizedOrders {
		if float64(e.cache.Len()) > orderCeiling || e.exhausted {
			break
		}
		if _, err := e.walkSearch(ctx, orderFacet(ch.ID, order, t.OptimizedOrderPages, t.OrderEmptyPages)); err != nil {
			return err
		}
	}
	return nil
}

// searchComprehensive sweeps every year since the epoch, then every
// ordering, then months of recent years when still short. Each sweep ends
// early once the cumulative quota-error count passes its ceiling.
func (e *Engine) searchComprehensive(ctx context.Context, ch *youtube.ChannelSummary) error {
	t := e.tuning
	now := e.now()
	current := now.Year()
	initial := e.cache.Len()

	for year := t.ComprehensiveEpoch; year <= current; year++ {
		if e.quotaErrors() > t.YearlyQuotaCeiling || e.exhausted {
			e.logger.Warn().Int("quota_errors", e.quotaErrors()).Msg("yearly sweep stopped")
			break
		}
		if _, err := e.walkSearch(ctx, yearFacet(ch.ID, year, t.ComprehensiveYearPages, t.YearMinNew)); err != nil {
			return err
		}
	}

	for _, order := range t.ComprehensiveOrders {
		if e.quotaErrors() > t.OrderingQuotaCeiling || e.exhausted {
			e.logger.Warn().Int("quota_errors", e.quotaErrors()).Msg("ordering sweep stopped")
			break
		}
		f := orderFacet(ch.ID, order, t.ComprehensiveOrderPages, t.OrderEmptyPages)
		added, err := e.walkSearch(ctx, f)
		if err != nil {
			return err
		}
		// A productive ordering probably has more to give.
		if added > t.OrderRerunAbove {
			if _, err := e.walkSearch(ctx, f); err != nil {
				return err
			}
		}
	}

	if ch.DeclaredVideoCount > 0 && e.below(ch, t.CompleteSearchBelow) {
		e.emit("search", "monthly sweep (%d of %d, %.1f%%)", e.cache.Len(), ch.DeclaredVideoCount,
			Completeness(e.cache.Len(), ch.DeclaredVideoCount))
		start := max(t.MonthlyYearFloor, current-t.MonthlyYears)
	months:
		for year := start; year <= current; year++ {
			for month := time.January; month <= time.December; month++ {
				if time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).After(now) {
					break months
				}
				if e.quotaErrors() > t.MonthlyQuotaCeiling || e.exhausted {
					e.logger.Warn().Int("quota_errors", e.quotaErrors()).Msg("monthly sweep stopped")
					break months
				}
				if _, err := e.walkSearch(ctx, monthFacet(ch.ID, year, month, t.MonthlyPages, t.MonthMinNew)); err != nil {
					return err
				}
			}
		}
	}

	e.logger.Info().Int("added", e.cache.Len()-initial).Int("total", e.cache.Len()).Msg("comprehensive search finished")
	return nil
}

func (e *Engine) result(strategy Strategy, ch *youtube.ChannelSummary, start time.Time) *Result {
	videos := e.cache.Records()

	e.mu.RLock()
	counters := e.counters.Clone()
	e.mu.RUnlock()

	res := &Result{
		Strategy:       strategy,
		Channel:        *ch,
		Videos:         videos,
		Declared:       ch.DeclaredVideoCount,
		Retrieved:      len(videos),
		Completeness:   Completeness(len(videos), ch.DeclaredVideoCount),
		Calls:          e.pool.Calls(),
		Counters:       counters,
		QuotaExhausted: e.exhausted,
		Elapsed:        e.now().Sub(start),
	}
	res.Report = diagnose.Analyze(diagnose.Input{
		Declared:     ch.DeclaredVideoCount,
		Videos:       videos,
		QuotaErrors:  counters.QuotaErrors,
		ListingPages: counters.ListingPages,
		SearchPages:  counters.SearchPages,
	}, e.thresholds)
	return res
}
