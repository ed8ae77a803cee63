package progress

import (
	"context"

	"go.uber.org/zap"
)

// Sink consumes events. The harvest pipeline is sequential, so sinks are
// called synchronously and need not be safe for concurrent use.
type Sink interface {
	Consume(evt Event)
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Fanout satisfies this interface so
// the harvester stays agnostic about where diagnostics go.
type Emitter interface {
	Emit(evt Event)
}

// Fanout forwards each event to every registered sink, discarding events
// that fail validation.
type Fanout struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewFanout builds a Fanout over the given sinks.
func NewFanout(logger *zap.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{sinks: append([]Sink(nil), sinks...), logger: logger}
}

// Emit forwards evt to all sinks.
func (f *Fanout) Emit(evt Event) {
	if f == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		f.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	for _, sink := range f.sinks {
		sink.Consume(evt)
	}
}

// Close closes every sink, returning the first error encountered.
func (f *Fanout) Close(ctx context.Context) error {
	if f == nil {
		return nil
	}
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
