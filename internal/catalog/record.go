// Package catalog holds the deduplicated set of videos collected during an
// enumeration, in the order they were first seen.
package catalog

import (
	"fmt"
	"strings"
	"time"

	ytdata "google.golang.org/api/youtube/v3"

	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/youtube"
)

// MalformedRecordError reports a raw item whose fields cannot be extracted.
type MalformedRecordError struct {
	ID     string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return "catalog: malformed record: " + e.Reason
	}
	return fmt.Sprintf("catalog: malformed record %s: %s", e.ID, e.Reason)
}

// Process converts a raw API video into a VideoRecord. Missing statistics
// counters read as zero; missing sections are errors.
func Process(item *ytdata.Video, codec *duration.Codec) (youtube.VideoRecord, error) {
	if item == nil {
		return youtube.VideoRecord{}, &MalformedRecordError{Reason: "nil item"}
	}
	id := strings.TrimSpace(item.Id)
	if id == "" {
		return youtube.VideoRecord{}, &MalformedRecordError{Reason: "missing id"}
	}

	var missing []string
	if item.Snippet == nil {
		missing = append(missing, "snippet")
	}
	if item.Statistics == nil {
		missing = append(missing, "statistics")
	}
	if item.ContentDetails == nil {
		missing = append(missing, "contentDetails")
	}
	if len(missing) > 0 {
		return youtube.VideoRecord{}, &MalformedRecordError{ID: id, Reason: "missing " + strings.Join(missing, ", ")}
	}

	published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	if err != nil {
		return youtube.VideoRecord{}, &MalformedRecordError{ID: id, Reason: "bad publishedAt " + fmt.Sprintf("%q", item.Snippet.PublishedAt)}
	}

	return youtube.VideoRecord{
		ID:              id,
		Title:           item.Snippet.Title,
		PublishedAt:     published.UTC(),
		DurationSeconds: codec.Parse(item.ContentDetails.Duration),
		Views:           int64(item.Statistics.ViewCount),
		Likes:           int64(item.Statistics.LikeCount),
		Comments:        int64(item.Statistics.CommentCount),
		URL:             youtube.VideoURL(id),
	}, nil
}
