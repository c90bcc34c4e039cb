// Package events defines the notifications that contracts emit for external
// observers.
//
// A contract records events while it executes. The host delivers them to the
// emitters only after the call has been committed, so an observer never sees
// an event for a call that had no effect.
package events

import (
	"context"
	"sort"

	"go.dedis.ch/bazaar"
	"golang.org/x/xerrors"
)

// Event is a typed notification with a flat set of attributes.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Keys returns the attribute names in sorted order.
func (e Event) Keys() []string {
	keys := make([]string, 0, len(e.Attributes))
	for key := range e.Attributes {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// Recorder collects the events of a call.
type Recorder interface {
	Record(Event)
}

// Buffer is a recorder that keeps the events in memory in the order they were
// recorded.
//
// - implements events.Recorder
type Buffer struct {
	events []Event
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Record implements events.Recorder.
func (b *Buffer) Record(evt Event) {
	b.events = append(b.events, evt)
}

// Events returns the recorded events.
func (b *Buffer) Events() []Event {
	return append([]Event{}, b.events...)
}

// Emitter delivers committed events to an observer.
type Emitter interface {
	Emit(ctx context.Context, evts ...Event) error
}

// NoopEmitter drops every event.
//
// - implements events.Emitter
type NoopEmitter struct{}

// Emit implements events.Emitter.
func (NoopEmitter) Emit(context.Context, ...Event) error {
	return nil
}

// LogEmitter writes every event to the global logger.
//
// - implements events.Emitter
type LogEmitter struct{}

// Emit implements events.Emitter.
func (LogEmitter) Emit(_ context.Context, evts ...Event) error {
	for _, evt := range evts {
		dict := bazaar.Logger.Info().Str("event", evt.Type)

		for _, key := range evt.Keys() {
			dict = dict.Str(key, evt.Attributes[key])
		}

		dict.Msg("event emitted")
	}

	return nil
}

// MultiEmitter forwards the events to every emitter in order and stops at the
// first failure.
//
// - implements events.Emitter
type MultiEmitter []Emitter

// Emit implements events.Emitter.
func (m MultiEmitter) Emit(ctx context.Context, evts ...Event) error {
	for i, emitter := range m {
		err := emitter.Emit(ctx, evts...)
		if err != nil {
			return xerrors.Errorf("emitter %d failed: %v", i, err)
		}
	}

	return nil
}
