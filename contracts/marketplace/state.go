package marketplace

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// Layout of the records in the snapshot. The sequences are stored as a
// big-endian counter and one record per index.
const (
	keyPrefix = "marketplace:"

	userPrefix    = keyPrefix + "user:"
	usersCount    = keyPrefix + "users"
	productsCount = keyPrefix + "products"
	ordersCount   = keyPrefix + "orders"
)

func userKey(addr Address) []byte {
	return []byte(userPrefix + string(addr))
}

func userIndexKey(index uint32) []byte {
	return indexKey(usersCount, index)
}

func productKey(id uint32) []byte {
	return indexKey(productsCount, id)
}

func orderKey(id uint32) []byte {
	return indexKey(ordersCount, id)
}

func indexKey(sequence string, index uint32) []byte {
	key := make([]byte, len(sequence)+1+4)
	copy(key, sequence)
	key[len(sequence)] = ':'
	binary.BigEndian.PutUint32(key[len(sequence)+1:], index)

	return key
}

// readRecord decodes the record of the key into the value. It returns false if
// the key does not exist.
func readRecord(snap store.Readable, key []byte, v interface{}) (bool, error) {
	data, err := snap.Get(key)
	if err != nil {
		return false, xerrors.Errorf("failed to read key %#x: %v", key, err)
	}

	if data == nil {
		return false, nil
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return false, xerrors.Errorf("failed to unmarshal key %#x: %v", key, err)
	}

	return true, nil
}

func writeRecord(snap store.Writable, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return xerrors.Errorf("failed to marshal record: %v", err)
	}

	err = snap.Set(key, data)
	if err != nil {
		return xerrors.Errorf("failed to write key %#x: %v", key, err)
	}

	return nil
}

// readCount returns the length of the sequence.
func readCount(snap store.Readable, sequence string) (uint32, error) {
	data, err := snap.Get([]byte(sequence))
	if err != nil {
		return 0, xerrors.Errorf("failed to read '%s' count: %v", sequence, err)
	}

	if data == nil {
		return 0, nil
	}

	if len(data) != 4 {
		return 0, xerrors.Errorf("malformed '%s' count of %d bytes", sequence, len(data))
	}

	return binary.BigEndian.Uint32(data), nil
}

// nextIndex returns the index that the next element of the sequence takes and
// stores the new length.
func nextIndex(snap store.Snapshot, sequence string) (uint32, error) {
	count, err := readCount(snap, sequence)
	if err != nil {
		return 0, err
	}

	if count == math.MaxUint32 {
		return 0, xerrors.Errorf("sequence '%s' is full", sequence)
	}

	buffer := make([]byte, 4)
	binary.BigEndian.PutUint32(buffer, count+1)

	err = snap.Set([]byte(sequence), buffer)
	if err != nil {
		return 0, xerrors.Errorf("failed to write '%s' count: %v", sequence, err)
	}

	return count, nil
}
