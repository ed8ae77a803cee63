package normalize

import (
	"regexp"
	"sort"
)

// Display fallbacks baked into the archive content; the static site shows
// these verbatim.
const (
	UnknownTitle     = "タイトル不明"
	EmptyDescription = "説明なし"
	summaryLimit     = 100
	summaryMarker    = "..."
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Tags extracts the set of #-prefixed tokens from text, deduplicated and
// lexicographically sorted, each re-prefixed with '#'. No match yields an
// empty (non-nil) slice so the archive always serializes a tag array.
func Tags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := "#" + m[1]
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Summary truncates a description to its first 100 runes, appending a
// continuation marker when anything was cut. An empty description yields the
// fixed placeholder.
func Summary(description string) string {
	if description == "" {
		return EmptyDescription
	}
	runes := []rune(description)
	if len(runes) <= summaryLimit {
		return description
	}
	return string(runes[:summaryLimit]) + summaryMarker
}
