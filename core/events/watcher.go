package events

import (
	"context"
	"sync"
)

// Observer is the interface to implement to watch the committed events.
type Observer interface {
	NotifyCallback(evt Event)
}

// Watcher is an emitter that forwards the events to the observers of the
// process, for instance the clients streaming the events of a node.
//
// - implements events.Emitter
type Watcher struct {
	sync.RWMutex

	observers map[Observer]struct{}
}

// NewWatcher creates a new empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{
		observers: make(map[Observer]struct{}),
	}
}

// Add adds the observer to the list of observers that will be notified of
// new events.
func (w *Watcher) Add(observer Observer) {
	w.Lock()
	w.observers[observer] = struct{}{}
	w.Unlock()
}

// Remove removes the observer from the list thus stopping it from receiving
// new events.
func (w *Watcher) Remove(observer Observer) {
	w.Lock()
	delete(w.observers, observer)
	w.Unlock()
}

// Len returns the number of observers.
func (w *Watcher) Len() int {
	w.RLock()
	defer w.RUnlock()

	return len(w.observers)
}

// Emit implements events.Emitter. Every observer receives the events in order.
// An observer must not block.
func (w *Watcher) Emit(_ context.Context, evts ...Event) error {
	w.RLock()
	defer w.RUnlock()

	for _, evt := range evts {
		for obs := range w.observers {
			obs.NotifyCallback(evt)
		}
	}

	return nil
}
