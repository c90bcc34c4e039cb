package kv

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestBoltDB_New(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "test.db")

	db, err := New(path)
	require.Nil(t, db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open '"+path+"'")
}

func TestBoltDB_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := New(path)
	require.NoError(t, err)

	defer db.Close()

	_, err = New(path, WithOpenTimeout(10*time.Millisecond))
	require.Error(t, err)
	require.Contains(t, err.Error(), "timeout")
}

func TestBoltDB_UpdateAndView(t *testing.T) {
	db := newTestDB(t)

	err := db.Update([]byte("bucket"), func(b Bucket) error {
		return b.Set([]byte("ping"), []byte("pong"))
	})
	require.NoError(t, err)

	err = db.View([]byte("bucket"), func(b Bucket) error {
		require.Equal(t, []byte("pong"), b.Get([]byte("ping")))
		require.Nil(t, b.Get([]byte("pong")))

		return nil
	})
	require.NoError(t, err)

	err = db.View([]byte{0xaa}, nil)
	require.EqualError(t, err, "bucket 'aa' not found")

	err = db.Update(nil, nil)
	require.EqualError(t, err, "failed to create bucket: bucket name required")
}

func TestBoltDB_UpdateRollback(t *testing.T) {
	db := newTestDB(t)

	err := db.Update([]byte("bucket"), func(b Bucket) error {
		require.NoError(t, b.Set([]byte("ping"), []byte("pong")))

		return xerrors.New("oops")
	})
	require.EqualError(t, err, "oops")

	// The creation of the bucket is rolled back too.
	err = db.View([]byte("bucket"), func(Bucket) error { return nil })
	require.EqualError(t, err, "bucket '6275636b6574' not found")
}

func TestBoltBucket_Delete(t *testing.T) {
	db := newTestDB(t)

	err := db.Update([]byte("bucket"), func(b Bucket) error {
		require.NoError(t, b.Set([]byte("ping"), []byte("pong")))
		require.NoError(t, b.Delete([]byte("ping")))
		require.Nil(t, b.Get([]byte("ping")))

		return b.Delete([]byte("unknown"))
	})
	require.NoError(t, err)
}

func TestBoltDB_Backup(t *testing.T) {
	db := newTestDB(t)

	err := db.Update([]byte("bucket"), func(b Bucket) error {
		return b.Set([]byte("ping"), []byte("pong"))
	})
	require.NoError(t, err)

	buffer := new(bytes.Buffer)

	n, err := db.Backup(buffer)
	require.NoError(t, err)
	require.Equal(t, int64(buffer.Len()), n)

	path := filepath.Join(t.TempDir(), "copy.db")
	require.NoError(t, os.WriteFile(path, buffer.Bytes(), 0600))

	restored, err := New(path)
	require.NoError(t, err)

	defer restored.Close()

	err = restored.View([]byte("bucket"), func(b Bucket) error {
		require.Equal(t, []byte("pong"), b.Get([]byte("ping")))
		return nil
	})
	require.NoError(t, err)

	_, err = db.Backup(badWriter{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to copy: ")
}

// -----------------------------------------------------------------------------
// Utility functions

func newTestDB(t *testing.T) DB {
	db, err := New(filepath.Join(t.TempDir(), "test.db"), WithNoSync())
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}

type badWriter struct{}

func (badWriter) Write([]byte) (int, error) {
	return 0, xerrors.New("oops")
}
