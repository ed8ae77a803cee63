// Package progress defines the diagnostic events emitted while harvesting
// and the sinks that consume them.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported stages.
const (
	StageCategoryStart Stage = "CATEGORY_START"
	StageCategoryDone  Stage = "CATEGORY_DONE"
	StageCategoryError Stage = "CATEGORY_ERROR"
	StageItemResolved  Stage = "ITEM_RESOLVED"
	StageItemFellBack  Stage = "ITEM_FELL_BACK"
	StageItemFatal     Stage = "ITEM_FATAL"
)

// Event captures one harvesting milestone.
type Event struct {
	// RunID identifies the harvest run that emitted the event.
	RunID uuid.UUID `json:"run_id"`
	// TS is the timestamp recorded by the emitter.
	TS time.Time `json:"ts"`
	// Stage is the milestone kind.
	Stage Stage `json:"stage"`
	// Category scopes the event to a channel category.
	Category string `json:"category,omitempty"`
	// VideoID scopes item events to one video.
	VideoID string `json:"video_id,omitempty"`
	// Tier names the information source that produced the record.
	Tier string `json:"tier,omitempty"`
	// Retries counts retry attempts consumed while resolving.
	Retries int `json:"retries,omitempty"`
	// Note carries low-volume context such as error text.
	Note string `json:"note,omitempty"`
	// Payload holds the raw offending entry for fatal events.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageCategoryStart, StageCategoryDone, StageCategoryError:
		if e.Category == "" {
			return errors.New("category events require a category")
		}
	case StageItemResolved, StageItemFellBack, StageItemFatal:
		if e.VideoID == "" {
			return errors.New("item events require a video id")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	return nil
}
