// Package kv defines the key/value database that persists the state of the
// ledger, and implements it with bbolt (https://github.com/etcd-io/bbolt).
//
// The whole state lives in one bucket. A host opens one writable transaction
// per batch so that a batch is committed entirely or not at all.
package kv

import "io"

// Bucket is the view of a bucket during a database transaction.
type Bucket interface {
	// Get returns the value of the key, or nil if it is not set. The value is
	// only valid until the end of the transaction.
	Get(key []byte) []byte

	// Set sets the value of the key.
	Set(key, value []byte) error

	// Delete removes the key. It does nothing if the key is not set.
	Delete(key []byte) error
}

// DB is the interface of a key/value database.
type DB interface {
	// View runs the read-only function on the bucket. It returns an error if
	// the bucket does not exist yet.
	View(bucket []byte, fn func(Bucket) error) error

	// Update runs the function on the bucket, which is created if needed. The
	// changes are committed only if the function returns nil.
	Update(bucket []byte, fn func(Bucket) error) error

	// Backup writes a consistent copy of the database and returns its size.
	// Writers are not blocked while the copy is made.
	Backup(w io.Writer) (int64, error)

	// Close releases the database file.
	Close() error
}
