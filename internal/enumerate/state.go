package enumerate

import "time"

// State is the resumable cursor of the ordered-listing walker. It is updated
// after every successful listing page and reset when a new channel is
// analyzed.
type State struct {
	// PlaylistID is the uploads playlist the cursor belongs to.
	PlaylistID string `json:"playlist_id,omitempty"`
	// PageToken is the token of the next page to fetch. Empty means the
	// listing starts from the beginning.
	PageToken string `json:"page_token,omitempty"`
	// Pages counts listing pages fetched for this cursor.
	Pages int `json:"pages"`
	// Strategy labels the strategy that last moved the cursor.
	Strategy string `json:"strategy,omitempty"`
	// LastPageFetchedAt is when the last page was fetched.
	LastPageFetchedAt time.Time `json:"last_page_fetched_at,omitempty"`
}

// CanResume reports whether a listing walk of playlistID can continue from
// the stored cursor.
func (s *State) CanResume(playlistID string) bool {
	if s == nil {
		return false
	}
	return s.PageToken != "" && s.PlaylistID == playlistID
}

// Advance records a fetched page.
func (s *State) Advance(playlistID, nextToken, strategy string, at time.Time) {
	s.PlaylistID = playlistID
	s.PageToken = nextToken
	s.Pages++
	s.Strategy = strategy
	s.LastPageFetchedAt = at
}

// Reset clears the cursor.
func (s *State) Reset() {
	*s = State{}
}

// Counters are running totals for one channel analysis. They are only reset
// when a new channel is analyzed.
type Counters struct {
	ListingPages     int      `json:"listing_pages"`
	SearchPages      int      `json:"search_pages"`
	DetailBatches    int      `json:"detail_batches"`
	QuotaErrors      int      `json:"quota_errors"`
	OtherErrors      int      `json:"other_errors"`
	MalformedRecords int      `json:"malformed_records"`
	LastError        string   `json:"last_error,omitempty"`
	Strategies       []string `json:"strategies,omitempty"`
}

// Clone returns a deep copy.
func (c Counters) Clone() Counters {
	out := c
	out.Strategies = append([]string(nil), c.Strategies...)
	return out
}
