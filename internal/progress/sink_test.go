package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySink struct {
	events   []Event
	closeErr error
	closed   bool
}

func (s *memorySink) Consume(evt Event) {
	s.events = append(s.events, evt)
}

func (s *memorySink) Close(context.Context) error {
	s.closed = true
	return s.closeErr
}

func validEvent() Event {
	return Event{
		RunID:    uuid.New(),
		TS:       time.Now(),
		Stage:    StageItemResolved,
		Category: "streams",
		VideoID:  "abc",
	}
}

func TestFanoutForwardsToAllSinks(t *testing.T) {
	t.Parallel()

	a, b := &memorySink{}, &memorySink{}
	fanout := NewFanout(zap.NewNop(), a, b)

	evt := validEvent()
	fanout.Emit(evt)

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	require.Equal(t, evt, a.events[0])
}

func TestFanoutDropsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	fanout := NewFanout(zap.NewNop(), sink)

	fanout.Emit(Event{Stage: StageItemResolved})

	require.Empty(t, sink.events)
}

func TestFanoutCloseReturnsFirstError(t *testing.T) {
	t.Parallel()

	first := &memorySink{closeErr: errors.New("first")}
	second := &memorySink{closeErr: errors.New("second")}
	fanout := NewFanout(zap.NewNop(), first, second)

	err := fanout.Close(context.Background())
	require.EqualError(t, err, "first")
	require.True(t, first.closed)
	require.True(t, second.closed)
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Event)
		ok     bool
	}{
		{"valid item event", func(*Event) {}, true},
		{"missing run id", func(e *Event) { e.RunID = uuid.Nil }, false},
		{"missing timestamp", func(e *Event) { e.TS = time.Time{} }, false},
		{"item without video id", func(e *Event) { e.VideoID = "" }, false},
		{"unknown stage", func(e *Event) { e.Stage = "SOMETHING_ELSE" }, false},
		{"category event", func(e *Event) {
			e.Stage = StageCategoryStart
			e.VideoID = ""
		}, true},
		{"category event without category", func(e *Event) {
			e.Stage = StageCategoryDone
			e.Category = ""
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			evt := validEvent()
			tt.mutate(&evt)
			if tt.ok {
				require.NoError(t, evt.Validate())
			} else {
				require.Error(t, evt.Validate())
			}
		})
	}
}
