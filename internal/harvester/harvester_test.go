package harvester

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/progress"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/provider"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/resolver"
)

type fakeListings struct {
	byCategory map[string][]provider.Entry
	errs       map[string]error
}

func (f *fakeListings) Listing(_ context.Context, _, category string) ([]provider.Entry, error) {
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	return f.byCategory[category], nil
}

type fakeDetails struct {
	failIDs map[string]bool
}

func (f *fakeDetails) Detail(_ context.Context, videoID string) (provider.Detail, error) {
	if f.failIDs[videoID] {
		return provider.Detail{}, errors.New("extractor refused")
	}
	return provider.Detail{
		ID:               videoID,
		Title:            "title " + videoID,
		ReleaseTimestamp: provider.EpochSeconds(1700000000),
	}, nil
}

type fakeProbe struct {
	err error
}

func (f *fakeProbe) FirstContent(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "2024-01-01T00:00:00", nil
}

type recordingEmitter struct {
	events []progress.Event
}

func (r *recordingEmitter) Emit(evt progress.Event) {
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) stages() []progress.Stage {
	out := make([]progress.Stage, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Stage)
	}
	return out
}

func entry(id string) provider.Entry {
	return provider.Entry{ID: id, Title: "title " + id}
}

func newTestHarvester(listings provider.ListingProvider, details provider.DetailProvider, probe provider.PageProbe, cfg Config, emitter progress.Emitter) *Harvester {
	res := resolver.New(details, probe, resolver.Config{DetailAttempts: 1}, zap.NewNop())
	h := New(listings, res, cfg, emitter, zap.NewNop())
	h.sleep = func(context.Context, time.Duration) error { return nil }
	return h
}

func TestRunHarvestsAllCategories(t *testing.T) {
	t.Parallel()

	listings := &fakeListings{byCategory: map[string][]provider.Entry{
		"streams": {entry("s1"), entry("s2")},
		"videos":  {entry("v1")},
		"shorts":  {},
	}}
	emitter := &recordingEmitter{}
	h := newTestHarvester(listings, &fakeDetails{}, &fakeProbe{}, Config{}, emitter)

	items, results, err := h.Run(context.Background(), "https://www.youtube.com/@chan")
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Len(t, results, 3)
	require.Equal(t, 2, results[0].Resolved)
	require.Equal(t, 1, results[1].Resolved)
	require.Zero(t, results[2].Resolved)

	require.Equal(t, []progress.Stage{
		progress.StageCategoryStart,
		progress.StageItemResolved,
		progress.StageItemResolved,
		progress.StageCategoryDone,
		progress.StageCategoryStart,
		progress.StageItemResolved,
		progress.StageCategoryDone,
		progress.StageCategoryStart,
		progress.StageCategoryDone,
	}, emitter.stages())
	for _, evt := range emitter.events {
		require.Equal(t, h.RunID(), evt.RunID)
		require.NoError(t, evt.Validate())
	}
}

func TestRunIsolatesEnumerationFailure(t *testing.T) {
	t.Parallel()

	listings := &fakeListings{
		byCategory: map[string][]provider.Entry{"videos": {entry("v1")}},
		errs:       map[string]error{"streams": errors.New("tab unavailable")},
	}
	emitter := &recordingEmitter{}
	h := newTestHarvester(listings, &fakeDetails{}, &fakeProbe{},
		Config{Categories: []string{"streams", "videos"}}, emitter)

	items, results, err := h.Run(context.Background(), "https://www.youtube.com/@chan")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)
	require.Contains(t, emitter.stages(), progress.StageCategoryError)
}

func TestRunCapsItemsPerCategory(t *testing.T) {
	t.Parallel()

	listings := &fakeListings{byCategory: map[string][]provider.Entry{
		"streams": {entry("s1"), entry("s2"), entry("s3")},
	}}
	h := newTestHarvester(listings, &fakeDetails{}, &fakeProbe{},
		Config{Categories: []string{"streams"}, MaxItems: 2}, nil)

	items, results, err := h.Run(context.Background(), "https://www.youtube.com/@chan")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 2, results[0].Resolved)
}

func TestRunSkipsEntriesWithoutID(t *testing.T) {
	t.Parallel()

	listings := &fakeListings{byCategory: map[string][]provider.Entry{
		"streams": {{Title: "placeholder"}, entry("s1")},
	}}
	h := newTestHarvester(listings, &fakeDetails{}, &fakeProbe{},
		Config{Categories: []string{"streams"}}, nil)

	items, results, err := h.Run(context.Background(), "https://www.youtube.com/@chan")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, results[0].Listed)
}

func TestRunAbortsOnFatalResolution(t *testing.T) {
	t.Parallel()

	listings := &fakeListings{byCategory: map[string][]provider.Entry{
		"streams": {entry("s1"), entry("s2")},
		"videos":  {entry("v1")},
	}}
	// s2's detail fetch fails and the fallback probe fails too, which is the
	// unrecoverable case.
	details := &fakeDetails{failIDs: map[string]bool{"s2": true}}
	probe := &fakeProbe{err: errors.New("browser gone")}
	emitter := &recordingEmitter{}
	h := newTestHarvester(listings, details, probe,
		Config{Categories: []string{"streams", "videos"}}, emitter)

	items, results, err := h.Run(context.Background(), "https://www.youtube.com/@chan")
	require.Error(t, err)
	require.Nil(t, items)
	require.Len(t, results, 1)

	var fatalErr *resolver.FatalError
	require.ErrorAs(t, err, &fatalErr)
	require.Equal(t, "s2", fatalErr.Entry.ID)

	last := emitter.events[len(emitter.events)-1]
	require.Equal(t, progress.StageItemFatal, last.Stage)
	require.Equal(t, "s2", last.VideoID)
	require.NotEmpty(t, last.Payload)
}

func TestRandomJitterStaysWithinBound(t *testing.T) {
	t.Parallel()

	for range 50 {
		j := randomJitter(100 * time.Millisecond)
		require.GreaterOrEqual(t, j, time.Duration(0))
		require.Less(t, j, 100*time.Millisecond)
	}
	require.Zero(t, randomJitter(0))
}
