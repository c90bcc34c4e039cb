// Package mem implements an in-memory snapshot that records its writes in an
// overlay on top of a parent store.
//
// Reads fall through to the parent when the key has not been touched by the
// overlay. Nothing reaches the parent until the overlay is applied, which is
// how the host discards every effect of a rejected call.
package mem

import (
	"sort"

	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

type item struct {
	value   []byte
	deleted bool
}

// Snapshot is an overlay snapshot.
//
// - implements store.StagingSnapshot
type Snapshot struct {
	parent store.Readable
	store  map[string]item
}

// NewSnapshot creates an empty snapshot without any parent.
func NewSnapshot() *Snapshot {
	return NewOverlay(nil)
}

// NewOverlay creates a snapshot that reads through to the parent for the keys
// it has not written.
func NewOverlay(parent store.Readable) *Snapshot {
	return &Snapshot{
		parent: parent,
		store:  make(map[string]item),
	}
}

// Get implements store.Readable. It returns nil when the key does not exist or
// has been deleted in the overlay.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	it, found := s.store[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return it.value, nil
	}

	if s.parent == nil {
		return nil, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("failed to read parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable.
func (s *Snapshot) Set(key, value []byte) error {
	buffer := make([]byte, len(value))
	copy(buffer, value)

	s.store[string(key)] = item{value: buffer}

	return nil
}

// Delete implements store.Writable.
func (s *Snapshot) Delete(key []byte) error {
	s.store[string(key)] = item{deleted: true}

	return nil
}

// Len returns the number of keys touched by the overlay.
func (s *Snapshot) Len() int {
	return len(s.store)
}

// Stage implements store.StagingSnapshot. The child overlay is merged into
// this snapshot only if the function succeeds.
func (s *Snapshot) Stage(fn func(store.Snapshot) error) error {
	child := NewOverlay(s)

	err := fn(child)
	if err != nil {
		return err
	}

	err = child.ApplyTo(s)
	if err != nil {
		return xerrors.Errorf("failed to apply stage: %v", err)
	}

	return nil
}

// ApplyTo writes the overlay to the given store. Keys are written in
// lexicographic order so that the outcome does not depend on map iteration.
func (s *Snapshot) ApplyTo(w store.Writable) error {
	keys := make([]string, 0, len(s.store))
	for key := range s.store {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := s.store[key]

		var err error
		if it.deleted {
			err = w.Delete([]byte(key))
		} else {
			err = w.Set([]byte(key), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to write key %#x: %v", key, err)
		}
	}

	return nil
}
