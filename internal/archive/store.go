package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ISOLayout is the canonical timestamp layout used across the archive.
const ISOLayout = "2006-01-02T15:04:05"

// Store reads and writes archive collections as JSON files.
type Store struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewStore builds a Store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger: logger,
		now:    time.Now,
	}
}

// Load reads the collection at path. A missing file, unreadable JSON, or a
// payload without an items array all degrade to an empty collection so the
// first run of the tool behaves the same as every later run.
func (s *Store) Load(path string) Collection {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("archive unreadable, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return Collection{}
	}

	var raw struct {
		Items *[]Item `json:"items"`
	}
	var collection Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		s.logger.Warn("archive JSON malformed, starting empty",
			zap.String("path", path), zap.Error(err))
		return Collection{}
	}
	if err := json.Unmarshal(data, &raw); err != nil || raw.Items == nil {
		s.logger.Warn("archive missing items array, starting empty",
			zap.String("path", path))
		return Collection{}
	}
	return collection
}

// Save merges incoming items into the collection at path, reindexes, stamps
// the update time, and rewrites the file atomically via a temp file so a
// failed write never corrupts the previous archive.
func (s *Store) Save(path string, incoming []Item) (Collection, error) {
	collection := s.Load(path)
	collection.Upsert(incoming)
	collection.Reindex()
	collection.LastUpdated = s.now().Format(ISOLayout)

	if err := s.write(path, collection); err != nil {
		return Collection{}, err
	}
	s.logger.Info("archive saved",
		zap.String("path", path),
		zap.Int("total_videos", collection.TotalVideos),
	)
	return collection, nil
}

func (s *Store) write(path string, collection Collection) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create archive dir %s: %w", dir, err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(collection); err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
