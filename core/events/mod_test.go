package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/bazaar/internal/testing/fake"
)

func TestEvent_Keys(t *testing.T) {
	evt := Event{Attributes: map[string]string{"b": "2", "a": "1"}}
	require.Equal(t, []string{"a", "b"}, evt.Keys())
}

func TestBuffer_Record(t *testing.T) {
	buf := NewBuffer()
	require.Empty(t, buf.Events())

	buf.Record(Event{Type: "A"})
	buf.Record(Event{Type: "B"})

	evts := buf.Events()
	require.Len(t, evts, 2)
	require.Equal(t, "A", evts[0].Type)
	require.Equal(t, "B", evts[1].Type)

	// The returned slice is a copy.
	evts[0].Type = "C"
	require.Equal(t, "A", buf.Events()[0].Type)
}

func TestEmitters(t *testing.T) {
	ctx := context.Background()
	evt := Event{Type: "A", Attributes: map[string]string{"id": "0"}}

	require.NoError(t, NoopEmitter{}.Emit(ctx, evt))
	require.NoError(t, LogEmitter{}.Emit(ctx, evt))

	first := &fakeEmitter{}
	second := &fakeEmitter{}

	err := MultiEmitter{first, second}.Emit(ctx, evt)
	require.NoError(t, err)
	require.Len(t, first.evts, 1)
	require.Len(t, second.evts, 1)

	err = MultiEmitter{first, &fakeEmitter{err: fake.GetError()}, second}.Emit(ctx, evt)
	require.EqualError(t, err, fake.Err("emitter 1 failed"))
	require.Len(t, second.evts, 1)
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeEmitter struct {
	evts []Event
	err  error
}

func (e *fakeEmitter) Emit(_ context.Context, evts ...Event) error {
	e.evts = append(e.evts, evts...)
	return e.err
}
