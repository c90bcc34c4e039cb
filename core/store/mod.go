// Package store defines the primitives of the key/value state that the host
// hands to a contract for the duration of a call.
//
// A missing key is not an error: Get returns a nil value so that contracts can
// distinguish an absent record from a failing backend.
package store

// Readable is the interface for a readable store.
type Readable interface {
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Snapshot is a state of the store that can be read and written
// independently. A write is applied only to the snapshot reference.
type Snapshot interface {
	Readable
	Writable
}

// StagingSnapshot is a snapshot that can fork a child whose writes reach the
// parent only when the staging function succeeds.
type StagingSnapshot interface {
	Snapshot

	// Stage executes the function on a child snapshot. The writes of the
	// child are applied to the parent if and only if the function returns
	// nil.
	Stage(fn func(Snapshot) error) error
}
