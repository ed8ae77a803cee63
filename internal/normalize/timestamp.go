// Package normalize converts provider-reported values into their canonical
// archive forms: timestamps, hashtag sets, and summaries.
package normalize

import (
	"fmt"
	"time"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/archive"
)

// sourceOffset corrects ISO timestamps reported by the provider, which are in
// a different reference frame than the archive stores.
const sourceOffset = 9 * time.Hour

var isoParseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Timestamp converts a provider timestamp into the canonical ISO-8601 string
// with no UTC-offset suffix. Epoch seconds are rendered in local time.
// ISO-8601 text is shifted by the source offset and its offset suffix
// dropped. A nil or empty value yields an empty string. Unparsable text is an
// error: it means the upstream data shape changed, and must not be swallowed.
func Timestamp(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case int:
		return fromEpoch(int64(v)), nil
	case int64:
		return fromEpoch(v), nil
	case float64:
		return fromEpoch(int64(v)), nil
	case string:
		if v == "" {
			return "", nil
		}
		return fromISO(v)
	default:
		return "", nil
	}
}

func fromEpoch(sec int64) string {
	return time.Unix(sec, 0).Format(archive.ISOLayout)
}

func fromISO(value string) (string, error) {
	var parsed time.Time
	var err error
	for _, layout := range isoParseLayouts {
		parsed, err = time.Parse(layout, value)
		if err == nil {
			return parsed.Add(sourceOffset).Format(archive.ISOLayout), nil
		}
	}
	return "", fmt.Errorf("parse timestamp %q: %w", value, err)
}
