package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(zap.NewNop())
	c := store.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Empty(t, c.Items)
	require.Zero(t, c.TotalVideos)
}

func TestLoadMalformedJSONReturnsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archives_test.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	c := NewStore(zap.NewNop()).Load(path)
	require.Empty(t, c.Items)
}

func TestLoadMissingItemsArrayReturnsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archives_test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tags": ["#x"]}`), 0o600))

	c := NewStore(zap.NewNop()).Load(path)
	require.Empty(t, c.Items)
	require.Empty(t, c.Tags)
}

func TestSaveCreatesDirsAndRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docs", "src", "archives_test.json")
	store := NewStore(zap.NewNop())

	collection, err := store.Save(path, []Item{
		item("a", "2024-01-01T00:00:00", "#song"),
		item("b", "2024-02-01T00:00:00", "#song", "#talk"),
	})
	require.NoError(t, err)
	require.Equal(t, 2, collection.TotalVideos)
	require.NotEmpty(t, collection.LastUpdated)

	loaded := store.Load(path)
	require.Equal(t, collection.Items, loaded.Items)
	require.Equal(t, []string{"#song", "#talk"}, loaded.Tags)
}

func TestSaveMergesWithExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archives_test.json")
	store := NewStore(zap.NewNop())

	_, err := store.Save(path, []Item{item("a", "2024-01-01T00:00:00")})
	require.NoError(t, err)

	updated := item("a", "2024-05-05T00:00:00")
	updated.Title = "rerun"
	collection, err := store.Save(path, []Item{updated, item("b", "2024-03-01T00:00:00")})
	require.NoError(t, err)

	require.Equal(t, 2, collection.TotalVideos)
	require.Equal(t, "a", collection.Items[0].VideoID)
	require.Equal(t, "rerun", collection.Items[0].Title)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "archives_test.json")
	_, err := NewStore(zap.NewNop()).Save(path, []Item{item("a", "2024-01-01T00:00:00")})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "archives_test.json", entries[0].Name())
}

func TestSaveWritesFrontendFieldNames(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archives_test.json")
	_, err := NewStore(zap.NewNop()).Save(path, []Item{item("abc", "2024-01-01T00:00:00")})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "items")
	require.Contains(t, raw, "tags")
	require.Contains(t, raw, "last_updated")
	require.Contains(t, raw, "total_videos")

	items := raw["items"].([]any)
	first := items[0].(map[string]any)
	for _, key := range []string{"title", "image", "alt", "description", "videoId", "video_url", "tags", "upload_date"} {
		require.Contains(t, first, key)
	}
}
