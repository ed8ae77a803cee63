// Package archive defines the persisted archive collection and its store.
package archive

import "sort"

// Item is one archived video record. The JSON field names are a contract
// with the static site that renders the archive; do not rename them.
type Item struct {
	Title       string   `json:"title"`
	Image       string   `json:"image"`
	Alt         string   `json:"alt"`
	Description string   `json:"description"`
	VideoID     string   `json:"videoId"`
	VideoURL    string   `json:"video_url"`
	Tags        []string `json:"tags"`
	UploadDate  string   `json:"upload_date"`
}

// Collection is the aggregate persisted as one JSON document per channel.
// Tags and TotalVideos are derived; Reindex recomputes them.
type Collection struct {
	Items       []Item   `json:"items"`
	Tags        []string `json:"tags"`
	LastUpdated string   `json:"last_updated"`
	TotalVideos int      `json:"total_videos"`
}

// Upsert merges incoming items into the collection keyed by video ID.
// An incoming item with a known ID replaces the existing record in place;
// unknown IDs are appended. Merging the same batch twice is a no-op.
func (c *Collection) Upsert(incoming []Item) {
	index := make(map[string]int, len(c.Items))
	for i, item := range c.Items {
		index[item.VideoID] = i
	}
	for _, item := range incoming {
		if pos, ok := index[item.VideoID]; ok {
			c.Items[pos] = item
			continue
		}
		index[item.VideoID] = len(c.Items)
		c.Items = append(c.Items, item)
	}
}

// Reindex recomputes the derived fields: items are sorted by upload date
// descending (the canonical timestamp format makes lexicographic order
// chronological; empty dates sort last), the tag index is rebuilt ordered by
// descending occurrence count with ties broken by first appearance, and the
// total is refreshed.
func (c *Collection) Reindex() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		return c.Items[i].UploadDate > c.Items[j].UploadDate
	})

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, item := range c.Items {
		for _, tag := range item.Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	c.Tags = order
	c.TotalVideos = len(c.Items)
}
