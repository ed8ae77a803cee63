// Package harvester enumerates channel categories and drives the resolver
// over each listed video.
package harvester

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/archive"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/progress"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/provider"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/resolver"
)

// Config controls a harvest run.
type Config struct {
	// Categories are the channel tabs enumerated per run.
	Categories []string
	// MaxItems caps how many listing entries are resolved per category.
	// Zero or negative means no limit.
	MaxItems int
	// BaseDelay is the fixed pause between per-video resolutions.
	BaseDelay time.Duration
	// MaxExtraDelay caps the random pause added on top of BaseDelay. The
	// upstream service rate-limits aggressive clients, so items are
	// deliberately resolved one at a time with jittered spacing.
	MaxExtraDelay time.Duration
}

// CategoryResult summarizes one category's harvest.
type CategoryResult struct {
	Category string
	Listed   int
	Resolved int
	FellBack int
	Err      error
}

// Harvester runs the sequential enumerate-resolve pipeline.
type Harvester struct {
	listings provider.ListingProvider
	resolver *resolver.Resolver
	cfg      Config
	emitter  progress.Emitter
	logger   *zap.Logger
	runID    uuid.UUID
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// New constructs a Harvester.
func New(
	listings provider.ListingProvider,
	res *resolver.Resolver,
	cfg Config,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Harvester {
	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{"streams", "videos", "shorts"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		listings: listings,
		resolver: res,
		cfg:      cfg,
		emitter:  emitter,
		logger:   logger,
		runID:    uuid.New(),
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// RunID identifies this harvest run in diagnostics.
func (h *Harvester) RunID() uuid.UUID {
	return h.runID
}

// Run harvests every configured category of channelURL sequentially. A
// category whose enumeration fails yields nothing but does not stop the
// others; an unrecoverable per-video failure aborts the whole run with the
// partial results discarded.
func (h *Harvester) Run(ctx context.Context, channelURL string) ([]archive.Item, []CategoryResult, error) {
	var items []archive.Item
	results := make([]CategoryResult, 0, len(h.cfg.Categories))

	for _, category := range h.cfg.Categories {
		result, categoryItems, err := h.harvestCategory(ctx, channelURL, category)
		results = append(results, result)
		if err != nil {
			return nil, results, err
		}
		items = append(items, categoryItems...)
	}
	return items, results, nil
}

func (h *Harvester) harvestCategory(ctx context.Context, channelURL, category string) (CategoryResult, []archive.Item, error) {
	result := CategoryResult{Category: category}
	h.emit(progress.Event{Stage: progress.StageCategoryStart, Category: category})

	entries, err := h.listings.Listing(ctx, channelURL, category)
	if err != nil {
		// Enumeration failures are isolated: the other categories still run.
		h.logger.Warn("category enumeration failed",
			zap.String("category", category), zap.Error(err))
		h.emit(progress.Event{
			Stage:    progress.StageCategoryError,
			Category: category,
			Note:     err.Error(),
		})
		result.Err = err
		return result, nil, nil
	}

	h.logger.Info("category listed",
		zap.String("category", category), zap.Int("entries", len(entries)))
	if h.cfg.MaxItems > 0 && len(entries) > h.cfg.MaxItems {
		h.logger.Info("capping category batch",
			zap.String("category", category), zap.Int("max_items", h.cfg.MaxItems))
		entries = entries[:h.cfg.MaxItems]
	}

	items := make([]archive.Item, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			continue
		}
		result.Listed++
		if result.Listed > 1 {
			if err := h.pause(ctx); err != nil {
				return result, nil, err
			}
		}

		resolution, err := h.resolver.Resolve(ctx, entry)
		if err != nil {
			h.emitFatal(category, entry.ID, err)
			return result, nil, fmt.Errorf("category %s: %w", category, err)
		}

		result.Resolved++
		stage := progress.StageItemResolved
		if resolution.FellBack {
			result.FellBack++
			stage = progress.StageItemFellBack
		}
		h.emit(progress.Event{
			Stage:    stage,
			Category: category,
			VideoID:  entry.ID,
			Tier:     string(resolution.Tier),
			Retries:  resolution.Retries,
		})
		items = append(items, resolution.Item)
	}

	h.emit(progress.Event{Stage: progress.StageCategoryDone, Category: category})
	return result, items, nil
}

func (h *Harvester) emit(evt progress.Event) {
	if h.emitter == nil {
		return
	}
	evt.RunID = h.runID
	evt.TS = h.now()
	h.emitter.Emit(evt)
}

func (h *Harvester) emitFatal(category, videoID string, err error) {
	evt := progress.Event{
		Stage:    progress.StageItemFatal,
		Category: category,
		VideoID:  videoID,
		Note:     err.Error(),
	}
	var fatalErr *resolver.FatalError
	if errors.As(err, &fatalErr) {
		evt.Payload = json.RawMessage(fatalErr.EntryJSON())
	}
	h.emit(evt)
}

// pause waits the politeness interval between per-video resolutions.
func (h *Harvester) pause(ctx context.Context) error {
	delay := h.cfg.BaseDelay + randomJitter(h.cfg.MaxExtraDelay)
	return h.sleep(ctx, delay)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
