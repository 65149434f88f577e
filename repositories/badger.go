// Package repositories persists the platform entities in BadgerDB.
// Keys carry the ordering (zero-padded timestamps, prefix scans); values
// are JSON. All check-then-act mutations run inside a single read-write
// transaction so that Badger's conflict detection serializes concurrent
// operations touching the same keys.
package repositories

import (
	"encoding/json"
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"
)

// update runs fn in a read-write transaction and re-runs it when the
// commit is aborted by a conflicting concurrent transaction. Operations
// on unrelated keys never block each other; operations on the same key
// serialize through the retry.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	for {
		err := db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// keysWithPrefix collects every key under the prefix. Values are not
// prefetched; callers that need them read per key.
func keysWithPrefix(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	keys, err := keysWithPrefix(txn, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
