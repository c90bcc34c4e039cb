package kv

import (
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

var _ store.Snapshot = Snapshot{}

// Snapshot exposes a bucket as a store snapshot. It lives as long as the
// database transaction that opened the bucket.
//
// - implements store.Snapshot
type Snapshot struct {
	bucket Bucket
}

// NewSnapshot returns a snapshot backed by the bucket.
func NewSnapshot(bucket Bucket) Snapshot {
	return Snapshot{
		bucket: bucket,
	}
}

// Get implements store.Readable. It returns a copy of the value so that it
// outlives the transaction.
func (s Snapshot) Get(key []byte) ([]byte, error) {
	value := s.bucket.Get(key)
	if value == nil {
		return nil, nil
	}

	res := make([]byte, len(value))
	copy(res, value)

	return res, nil
}

// Set implements store.Writable.
func (s Snapshot) Set(key, value []byte) error {
	err := s.bucket.Set(key, value)
	if err != nil {
		return xerrors.Errorf("failed to set key %#x: %v", key, err)
	}

	return nil
}

// Delete implements store.Writable.
func (s Snapshot) Delete(key []byte) error {
	err := s.bucket.Delete(key)
	if err != nil {
		return xerrors.Errorf("failed to delete key %#x: %v", key, err)
	}

	return nil
}
