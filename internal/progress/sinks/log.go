// Package sinks provides the built-in progress sink implementations.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/progress"
)

// Log writes each event through a zap logger, one line per milestone.
type Log struct {
	logger *zap.Logger
}

// NewLog builds a Log sink.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Consume logs the event at a level matching its severity.
func (s *Log) Consume(evt progress.Event) {
	fields := []zap.Field{
		zap.String("stage", string(evt.Stage)),
	}
	if evt.Category != "" {
		fields = append(fields, zap.String("category", evt.Category))
	}
	if evt.VideoID != "" {
		fields = append(fields, zap.String("video_id", evt.VideoID))
	}
	if evt.Tier != "" {
		fields = append(fields, zap.String("tier", evt.Tier))
	}
	if evt.Retries > 0 {
		fields = append(fields, zap.Int("retries", evt.Retries))
	}
	if evt.Note != "" {
		fields = append(fields, zap.String("note", evt.Note))
	}

	switch evt.Stage {
	case progress.StageItemFatal, progress.StageCategoryError:
		if len(evt.Payload) > 0 {
			fields = append(fields, zap.ByteString("payload", evt.Payload))
		}
		s.logger.Error("harvest progress", fields...)
	case progress.StageItemFellBack:
		s.logger.Warn("harvest progress", fields...)
	default:
		s.logger.Info("harvest progress", fields...)
	}
}

// Close is a no-op for the log sink.
func (s *Log) Close(context.Context) error {
	return nil
}
