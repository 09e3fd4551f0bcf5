package catalog

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
	ytdata "google.golang.org/api/youtube/v3"

	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/youtube"
)

// IngestStats summarizes one IngestBatch call.
type IngestStats struct {
	Added   int
	Reused  int
	Skipped int
}

// Cache maps video identifiers to records and keeps the working list. Every
// identifier in the list has exactly one cache entry and vice versa.
//
// A single enumeration owns writes; readers may take copies concurrently.
type Cache struct {
	mu      sync.RWMutex
	byID    map[string]*youtube.VideoRecord
	order   []*youtube.VideoRecord
	skipped int

	codec  *duration.Codec
	logger zerolog.Logger
}

// New returns an empty cache that parses durations with codec.
func New(codec *duration.Codec, logger zerolog.Logger) *Cache {
	if codec == nil {
		codec = duration.NewCodec(0)
	}
	return &Cache{
		byID:   make(map[string]*youtube.VideoRecord),
		codec:  codec,
		logger: logger,
	}
}

// IngestBatch adds every item not already known. Known items are left
// untouched. An item that cannot be processed is logged and skipped without
// affecting its siblings.
func (c *Cache) IngestBatch(items []*ytdata.Video) IngestStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats IngestStats
	for _, item := range items {
		if item != nil {
			if _, ok := c.byID[item.Id]; ok {
				stats.Reused++
				continue
			}
		}

		rec, err := Process(item, c.codec)
		if err != nil {
			stats.Skipped++
			c.skipped++
			c.logger.Warn().Err(err).Msg("skipping video")
			continue
		}
		if _, ok := c.byID[rec.ID]; ok {
			// Same id after trimming.
			stats.Reused++
			continue
		}

		c.byID[rec.ID] = &rec
		c.order = append(c.order, &rec)
		stats.Added++
	}
	return stats
}

// Unknown returns the identifiers in ids that are not cached, without
// duplicates, in their original order.
func (c *Cache) Unknown(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.byID[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Has reports whether id is cached.
func (c *Cache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byID[id]
	return ok
}

// Get returns the record for id.
func (c *Cache) Get(id string) (youtube.VideoRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byID[id]
	if !ok {
		return youtube.VideoRecord{}, false
	}
	return *rec, true
}

// Len returns the number of records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Skipped returns how many malformed items were dropped since the last
// Reset.
func (c *Cache) Skipped() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.skipped
}

// Records returns a copy of the working list.
func (c *Cache) Records() []youtube.VideoRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]youtube.VideoRecord, len(c.order))
	for i, rec := range c.order {
		out[i] = *rec
	}
	return out
}

// IDs returns the identifiers in working-list order.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	for i, rec := range c.order {
		out[i] = rec.ID
	}
	return out
}

// SortByPublishedDesc orders the working list newest first. Records with
// equal timestamps keep their relative order.
func (c *Cache) SortByPublishedDesc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(c.order, func(i, j int) bool {
		return c.order[i].PublishedAt.After(c.order[j].PublishedAt)
	})
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[string]*youtube.VideoRecord)
	c.order = nil
	c.skipped = 0
}

// Restore replaces the contents with records, keeping their order and
// dropping repeated identifiers.
func (c *Cache) Restore(records []youtube.VideoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[string]*youtube.VideoRecord, len(records))
	c.order = make([]*youtube.VideoRecord, 0, len(records))
	c.skipped = 0
	for i := range records {
		rec := records[i]
		if rec.ID == "" {
			continue
		}
		if _, ok := c.byID[rec.ID]; ok {
			continue
		}
		c.byID[rec.ID] = &rec
		c.order = append(c.order, &rec)
	}
}
