package kv

import (
	"io"
	"time"

	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

// DefaultOpenTimeout is the time to wait for the lock of the database file, for
// instance when a node is already running on it.
const DefaultOpenTimeout = 2 * time.Second

// Option is the type of options to open a database.
type Option func(*bbolt.Options)

// WithOpenTimeout sets the time to wait for the lock of the file.
func WithOpenTimeout(d time.Duration) Option {
	return func(opts *bbolt.Options) {
		opts.Timeout = d
	}
}

// WithNoSync disables the fsync after each commit. It must only be used by
// tests.
func WithNoSync() Option {
	return func(opts *bbolt.Options) {
		opts.NoSync = true
	}
}

// boltDB is the bbolt implementation of the database.
//
// - implements kv.DB
type boltDB struct {
	bolt *bbolt.DB
}

// New opens the database file and creates it if it does not exist.
func New(path string, opts ...Option) (DB, error) {
	options := &bbolt.Options{Timeout: DefaultOpenTimeout}
	for _, opt := range opts {
		opt(options)
	}

	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, xerrors.Errorf("failed to open '%s': %v", path, err)
	}

	return boltDB{bolt: db}, nil
}

// View implements kv.DB.
func (db boltDB) View(name []byte, fn func(Bucket) error) error {
	return db.bolt.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(name)
		if bucket == nil {
			return xerrors.Errorf("bucket '%x' not found", name)
		}

		return fn(boltBucket{bucket})
	})
}

// Update implements kv.DB.
func (db boltDB) Update(name []byte, fn func(Bucket) error) error {
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(name)
		if err != nil {
			return xerrors.Errorf("failed to create bucket: %v", err)
		}

		return fn(boltBucket{bucket})
	})
}

// Backup implements kv.DB. The copy is made in a read-only transaction.
func (db boltDB) Backup(w io.Writer) (int64, error) {
	var n int64

	err := db.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		n, err = tx.WriteTo(w)

		return err
	})
	if err != nil {
		return n, xerrors.Errorf("failed to copy: %v", err)
	}

	return n, nil
}

// Close implements kv.DB.
func (db boltDB) Close() error {
	return db.bolt.Close()
}

// boltBucket is the view of a bbolt bucket.
//
// - implements kv.Bucket
type boltBucket struct {
	*bbolt.Bucket
}

// Set implements kv.Bucket.
func (b boltBucket) Set(key, value []byte) error {
	return b.Put(key, value)
}
