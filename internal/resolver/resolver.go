// Package resolver decides which metadata tier to trust for one video and
// executes it, with tier-specific retry and fallback.
package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/archive"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/provider"
)

// Tier identifies the information source that produced a record.
type Tier string

// Tiers in decreasing order of data richness.
const (
	TierDetailed Tier = "detailed"
	TierBasic    Tier = "basic"
	TierBrowser  Tier = "browser"
)

// RestrictedTag is the synthetic tag marking membership-gated videos.
const RestrictedTag = "#メン限"

// Config controls resolver behavior.
type Config struct {
	// DetailAttempts caps detailed-fetch tries per video.
	DetailAttempts int
	// DetailRetryDelay is the fixed wait between detailed-fetch tries.
	DetailRetryDelay time.Duration
	// TrustListingAvailability selects how restricted videos are detected:
	// true trusts the listing's availability field and skips the detail
	// source entirely; false lets the detail fetch fail and infers the
	// restriction from that failure.
	TrustListingAvailability bool
}

// Resolution is the terminal outcome for one successfully resolved video.
type Resolution struct {
	Item     archive.Item
	Tier     Tier
	FellBack bool
	Retries  int
}

// Resolver executes the tier state machine for individual listing entries.
type Resolver struct {
	details provider.DetailProvider
	probe   provider.PageProbe
	cfg     Config
	retry   retryPolicy
	logger  *zap.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// New constructs a Resolver.
func New(details provider.DetailProvider, probe provider.PageProbe, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.DetailAttempts <= 0 {
		cfg.DetailAttempts = 3
	}
	if cfg.DetailRetryDelay <= 0 {
		cfg.DetailRetryDelay = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		details: details,
		probe:   probe,
		cfg:     cfg,
		retry:   newFixedDelayPolicy(cfg.DetailAttempts, cfg.DetailRetryDelay),
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Resolve runs the state machine for one listing entry. The returned error is
// always a *FatalError: every recoverable failure is absorbed by falling back
// to a less rich tier, so an error here means no tier could produce a record
// and the whole run must stop.
func (r *Resolver) Resolve(ctx context.Context, entry provider.Entry) (Resolution, error) {
	if entry.ID == "" {
		return Resolution{}, &FatalError{Entry: entry, Err: fmt.Errorf("listing entry has no id")}
	}

	switch {
	case r.cfg.TrustListingAvailability && entry.Availability == provider.AvailabilitySubscriberOnly:
		// The detail source is known to fail for membership-gated videos;
		// skip straight to the listing fields and browse for the timestamp.
		r.logger.Info("restricted video, using listing info",
			zap.String("video_id", entry.ID), zap.String("title", entry.Title))
		result := r.basicInfo(ctx, entry, true)
		return r.finish(entry, result, TierBasic, false, 0)

	case r.scheduledInFuture(entry):
		// Not yet published; there is no rich metadata to fetch and the
		// listing's scheduled timestamp is authoritative.
		r.logger.Info("unpublished video, using listing info",
			zap.String("video_id", entry.ID), zap.String("title", entry.Title))
		result := r.basicInfo(ctx, entry, false)
		return r.finish(entry, result, TierBasic, false, 0)

	default:
		return r.resolvePublished(ctx, entry)
	}
}

func (r *Resolver) resolvePublished(ctx context.Context, entry provider.Entry) (Resolution, error) {
	result, retries := r.detailedFetch(ctx, entry)
	switch result.status {
	case tierResolved:
		return r.finish(entry, result, TierDetailed, false, retries)
	case tierFatal:
		return Resolution{}, &FatalError{Entry: entry, Err: result.reason}
	}

	// Tier failure: fall back to the listing fields. The detail error is
	// deliberately dropped unless basic construction also fails; a failing
	// detail source usually just means a gated or scheduled video the
	// listing did not flag.
	r.logger.Warn("detailed fetch failed, falling back to listing info",
		zap.String("video_id", entry.ID), zap.Error(result.reason))
	fallback := r.basicInfo(ctx, entry, true)
	return r.finish(entry, fallback, TierBasic, true, retries)
}

func (r *Resolver) finish(entry provider.Entry, result tierResult, tier Tier, fellBack bool, retries int) (Resolution, error) {
	switch result.status {
	case tierResolved:
		return Resolution{Item: result.item, Tier: tier, FellBack: fellBack, Retries: retries}, nil
	default:
		return Resolution{}, &FatalError{Entry: entry, Err: result.reason}
	}
}

func (r *Resolver) scheduledInFuture(entry provider.Entry) bool {
	sec, ok := entry.ReleaseTimestamp.Epoch()
	return ok && r.now().Unix() < sec
}

// detailedFetch calls the detail provider with retries and builds the record
// from the rich payload.
func (r *Resolver) detailedFetch(ctx context.Context, entry provider.Entry) (tierResult, int) {
	var detail provider.Detail
	var err error
	retries := 0
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			retries++
			r.logger.Info("retrying detailed fetch",
				zap.String("video_id", entry.ID),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", r.cfg.DetailAttempts),
			)
			if serr := r.sleep(ctx, r.retry.Backoff(attempt)); serr != nil {
				return fatal(serr), retries
			}
		}
		detail, err = r.details.Detail(ctx, entry.ID)
		if err == nil {
			break
		}
		if !r.retry.ShouldRetry(err, attempt+1) {
			return fellBack(fmt.Errorf("detailed fetch for %s: %w", entry.ID, err)), retries
		}
	}
	return r.buildFromDetail(ctx, entry.ID, detail), retries
}
