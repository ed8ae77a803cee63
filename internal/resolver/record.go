package resolver

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/archive"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/normalize"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/provider"
)

// tierStatus classifies the outcome of one tier execution. The fallback
// chain is driven by these values rather than by error control flow.
type tierStatus int

const (
	tierResolved tierStatus = iota
	tierFellBack
	tierFatal
)

type tierResult struct {
	status tierStatus
	item   archive.Item
	reason error
}

func resolved(item archive.Item) tierResult {
	return tierResult{status: tierResolved, item: item}
}

func fellBack(reason error) tierResult {
	return tierResult{status: tierFellBack, reason: reason}
}

func fatal(reason error) tierResult {
	return tierResult{status: tierFatal, reason: reason}
}

// buildFromDetail assembles a record from the rich payload. The publish time
// comes from the release timestamp when present, else the generic timestamp,
// else a page probe. Any failure here is recoverable: the caller retries the
// listing-based tier.
func (r *Resolver) buildFromDetail(ctx context.Context, videoID string, detail provider.Detail) tierResult {
	title := detail.Title
	if title == "" {
		title = normalize.UnknownTitle
	}
	videoURL := watchURL(videoID)

	publishValue := detail.ReleaseTimestamp
	if publishValue.IsZero() {
		r.logger.Info("release timestamp empty, using generic timestamp",
			zap.String("video_id", videoID))
		publishValue = detail.Timestamp
	}
	if publishValue.IsZero() {
		r.logger.Info("generic timestamp also empty, probing page",
			zap.String("video_id", videoID))
		probed, err := r.probe.FirstContent(ctx, videoURL)
		if err != nil {
			return fellBack(fmt.Errorf("probe publish time for %s: %w", videoID, err))
		}
		publishValue = provider.ISOText(probed)
	}

	uploadDate, err := normalize.Timestamp(publishValue.Value())
	if err != nil {
		return fellBack(fmt.Errorf("normalize detail timestamp for %s: %w", videoID, err))
	}

	return resolved(archive.Item{
		Title:       title,
		Image:       thumbnailURL(detail.Thumbnails, videoID),
		Alt:         title,
		Description: normalize.Summary(detail.Description),
		VideoID:     videoID,
		VideoURL:    videoURL,
		Tags:        normalize.Tags(title),
		UploadDate:  uploadDate,
	})
}

// basicInfo assembles a record from the listing entry alone. When forceProbe
// is set (restricted videos and detail-tier fallbacks) the publish time is
// always browsed for; otherwise the listing's release timestamp is trusted
// and the probe is the last resort. There is no tier below this one, so any
// failure is fatal for the whole run.
func (r *Resolver) basicInfo(ctx context.Context, entry provider.Entry, forceProbe bool) tierResult {
	title := entry.Title
	if title == "" {
		title = normalize.UnknownTitle
	}

	tags := normalize.Tags(title)
	if entry.Availability == provider.AvailabilitySubscriberOnly {
		tags = appendTag(tags, RestrictedTag)
	}

	videoURL := entry.URL
	if videoURL == "" {
		videoURL = watchURL(entry.ID)
	}

	publishValue := entry.ReleaseTimestamp
	if forceProbe || publishValue.IsZero() {
		probed, err := r.probe.FirstContent(ctx, videoURL)
		if err != nil {
			return fatal(fmt.Errorf("probe publish time for %s: %w", entry.ID, err))
		}
		publishValue = provider.ISOText(probed)
	}

	uploadDate, err := normalize.Timestamp(publishValue.Value())
	if err != nil {
		return fatal(fmt.Errorf("normalize listing timestamp for %s: %w", entry.ID, err))
	}

	return resolved(archive.Item{
		Title:       title,
		Image:       thumbnailURL(entry.Thumbnails, entry.ID),
		Alt:         title,
		Description: normalize.Summary(entry.Description),
		VideoID:     entry.ID,
		VideoURL:    videoURL,
		Tags:        tags,
		UploadDate:  uploadDate,
	})
}

// thumbnailURL prefers the 640x480 variant, then the highest-resolution one
// (the source lists variants in ascending quality), then a synthesized
// default URL.
func thumbnailURL(thumbs []provider.Thumbnail, videoID string) string {
	for _, thumb := range thumbs {
		if thumb.Resolution == "640x480" && thumb.URL != "" {
			return thumb.URL
		}
	}
	for i := len(thumbs) - 1; i >= 0; i-- {
		if thumbs[i].URL != "" {
			return thumbs[i].URL
		}
	}
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/maxresdefault.jpg", videoID)
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func appendTag(tags []string, tag string) []string {
	for _, existing := range tags {
		if existing == tag {
			return tags
		}
	}
	tags = append(tags, tag)
	sort.Strings(tags)
	return tags
}
