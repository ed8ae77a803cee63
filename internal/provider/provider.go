// Package provider defines the boundary to the external metadata sources:
// the channel-listing enumerator, the per-video detail extractor, and the
// headless page probe used when neither structured source has a timestamp.
package provider

import "context"

// Availability values reported by the listing source.
const (
	AvailabilitySubscriberOnly = "subscriber_only"
)

// Thumbnail is one thumbnail variant offered for a video.
type Thumbnail struct {
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
}

// Entry is a lightweight listing record, known before any detailed fetch.
// Entries without an ID are not resolvable and must be skipped.
type Entry struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	URL              string      `json:"url"`
	Description      string      `json:"description"`
	Availability     string      `json:"availability"`
	ReleaseTimestamp TimeValue   `json:"release_timestamp"`
	Thumbnails       []Thumbnail `json:"thumbnails"`
}

// Detail is the rich per-video payload returned by the detail source.
type Detail struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Availability     string      `json:"availability"`
	ReleaseTimestamp TimeValue   `json:"release_timestamp"`
	Timestamp        TimeValue   `json:"timestamp"`
	Thumbnails       []Thumbnail `json:"thumbnails"`
}

// ListingProvider enumerates the videos of one channel category.
type ListingProvider interface {
	Listing(ctx context.Context, channelURL, category string) ([]Entry, error)
}

// DetailProvider fetches the rich metadata payload for one video ID.
// An error means the fetch failed; it is distinct from a payload that is
// simply missing fields.
type DetailProvider interface {
	Detail(ctx context.Context, videoID string) (Detail, error)
}

// PageProbe extracts the first non-empty publish-time value exposed by a
// rendered video page. Implementations own the fragile page-structure
// selector list so it can be swapped or faked in tests.
type PageProbe interface {
	FirstContent(ctx context.Context, pageURL string) (string, error)
}
