package enumerate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ytanalyzer/internal/youtube"
)

// walkListing pages through the channel's uploads playlist, resuming from
// the stored cursor when it belongs to the same playlist. It stops at
// maxPages (counted across resumptions), at the last page, or when quota is
// gone. A non-quota failure is returned as a *WalkError.
func (e *Engine) walkListing(ctx context.Context, ch *youtube.ChannelSummary, maxPages int, label string) error {
	playlistID := ch.UploadsPlaylistID
	e.addStrategy(label)

	e.mu.Lock()
	token, pages := "", 0
	if e.state.CanResume(playlistID) {
		token, pages = e.state.PageToken, e.state.Pages
		e.logger.Info().Int("page", pages).Str("playlist_id", playlistID).Msg("resuming listing")
	} else {
		e.state.Reset()
		e.state.PlaylistID = playlistID
	}
	e.mu.Unlock()

	for maxPages <= 0 || pages < maxPages {
		if e.exhausted {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var page *youtube.Page
		err := e.call(ctx, func(ctx context.Context, api youtube.API) error {
			p, err := api.PlaylistPage(ctx, playlistID, token)
			page = p
			return err
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrQuotaExhausted):
				e.logger.Warn().Int("page", pages+1).Msg("listing stopped, quota exhausted")
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			}
			return &WalkError{Walker: "listing", Page: pages + 1, Err: err}
		}

		pages++
		e.mu.Lock()
		e.counters.ListingPages++
		e.mu.Unlock()

		e.markSeen(page.VideoIDs)
		if err := e.fetchDetails(ctx, page.VideoIDs); err != nil {
			if errors.Is(err, ErrQuotaExhausted) {
				return nil
			}
			return err
		}

		// The cursor only moves once the page's records are in, so a resumed
		// walk never skips a page whose details were not fetched.
		e.mu.Lock()
		e.state.Advance(playlistID, page.NextPageToken, label, e.now())
		e.mu.Unlock()

		e.emit("listing", "playlist: %d videos loaded (page %d)", e.cache.Len(), pages)

		token = page.NextPageToken
		if token == "" {
			e.logger.Info().Int("pages", pages).Msg("listing complete")
			break
		}
	}
	return nil
}

// facet is one search walk: a query plus the rules that end it.
type facet struct {
	label string
	query youtube.SearchQuery
	// maxPages bounds the pages fetched.
	maxPages int
	// minNew ends the walk after a page with fewer new items. Zero disables.
	minNew int
	// maxEmpty ends the walk after more than maxEmpty consecutive pages
	// without new items. Zero disables.
	maxEmpty int
	// maxResults ends the walk once this many new items were found. Zero
	// disables.
	maxResults int
}

// done reports whether the walk ends after a page.
func (f facet) done(nextToken string, fresh, empty, found int) bool {
	switch {
	case nextToken == "":
		return true
	case f.minNew > 0 && fresh < f.minNew:
		return true
	case f.maxEmpty > 0 && empty > f.maxEmpty:
		return true
	case f.maxResults > 0 && found >= f.maxResults:
		return true
	}
	return false
}

func yearFacet(channelID string, year, maxPages, minNew int) facet {
	return facet{
		label: fmt.Sprintf("search year %d", year),
		query: youtube.SearchQuery{
			ChannelID:       channelID,
			Order:           youtube.OrderDate,
			PublishedAfter:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			PublishedBefore: time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		maxPages: maxPages,
		minNew:   minNew,
	}
}

func monthFacet(channelID string, year int, month time.Month, maxPages, minNew int) facet {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return facet{
		label: fmt.Sprintf("search month %d-%02d", year, int(month)),
		query: youtube.SearchQuery{
			ChannelID:       channelID,
			Order:           youtube.OrderDate,
			PublishedAfter:  from,
			PublishedBefore: from.AddDate(0, 1, 0),
		},
		maxPages: maxPages,
		minNew:   minNew,
	}
}

func orderFacet(channelID string, order youtube.Order, maxPages, maxEmpty int) facet {
	return facet{
		label:    fmt.Sprintf("search order %s", order),
		query:    youtube.SearchQuery{ChannelID: channelID, Order: order},
		maxPages: maxPages,
		maxEmpty: maxEmpty,
	}
}

// walkSearch runs one search facet and returns how many records it added.
// Only context cancellation is returned as an error: a quota failure or any
// other remote failure ends this walk and lets the strategy move on.
func (e *Engine) walkSearch(ctx context.Context, f facet) (int, error) {
	if e.exhausted {
		return 0, nil
	}
	e.addStrategy(f.label)
	before := e.cache.Len()

	token := ""
	found, empty := 0, 0
	for page := 1; page <= f.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return e.cache.Len() - before, err
		}

		var p *youtube.Page
		err := e.call(ctx, func(ctx context.Context, api youtube.API) error {
			r, err := api.SearchPage(ctx, f.query, token)
			p = r
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return e.cache.Len() - before, ctx.Err()
			}
			e.logger.Warn().Err(err).Str("facet", f.label).Int("page", page).Msg("search walk stopped")
			break
		}

		e.mu.Lock()
		e.counters.SearchPages++
		e.mu.Unlock()

		fresh := e.unseen(p.VideoIDs)
		e.markSeen(fresh)
		if err := e.fetchDetails(ctx, fresh); err != nil {
			if errors.Is(err, ErrQuotaExhausted) {
				break
			}
			return e.cache.Len() - before, err
		}
		found += len(fresh)

		if len(fresh) > 0 {
			empty = 0
			e.emit("search", "%s: %d videos total", f.label, e.cache.Len())
		} else {
			empty++
		}

		token = p.NextPageToken
		if f.done(token, len(fresh), empty, found) {
			break
		}
	}

	added := e.cache.Len() - before
	if added > 0 {
		e.logger.Info().Str("facet", f.label).Int("added", added).Msg("search walk found new videos")
	}
	return added, nil
}

// unseen returns the identifiers not yet requested in this run and not
// cached.
func (e *Engine) unseen(ids []string) []string {
	var out []string
	for _, id := range e.cache.Unknown(ids) {
		if _, ok := e.seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) markSeen(ids []string) {
	for _, id := range ids {
		e.seen[id] = struct{}{}
	}
}

func (e *Engine) unmarkSeen(ids []string) {
	for _, id := range ids {
		delete(e.seen, id)
	}
}
