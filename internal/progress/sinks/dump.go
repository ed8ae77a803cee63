package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/progress"
)

// Dump accumulates every event in memory and writes the whole run's
// diagnostics as one JSON document on Close. It replaces ad-hoc debug
// toggles: callers opt in by registering the sink.
type Dump struct {
	path   string
	events []progress.Event
}

// NewDump builds a Dump sink targeting path.
func NewDump(path string) *Dump {
	return &Dump{path: path}
}

// Consume appends the event to the in-memory run log.
func (s *Dump) Consume(evt progress.Event) {
	s.events = append(s.events, evt)
}

// Close writes the accumulated events to the dump file.
func (s *Dump) Close(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create dump dir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return fmt.Errorf("encode diagnostics dump: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write diagnostics dump: %w", err)
	}
	return nil
}
