//go:generate go run go.uber.org/mock/mockgen -source=backend.go -destination=../mocks/mock_backend.go -package=mocks
package history

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces room logs inside the store. The value under
// "history:<room>" is the room's entire ordered log, JSON encoded, so each
// append is a whole-log rewrite. Acceptable at this scale; the Backend seam
// allows swapping in an append-only layout without touching the store's
// contract.
const keyPrefix = "history:"

// Backend is the durable layer under the Store. Writes must be atomic: a
// failed WriteRoom leaves the previously persisted value intact.
type Backend interface {
	WriteRoom(room string, data []byte) error
	// LoadAll returns every persisted room log keyed by room id.
	LoadAll() (map[string][]byte, error)
}

// BadgerBackend persists room logs in BadgerDB, one key per room.
type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBackend(db *badger.DB) BadgerBackend {
	return BadgerBackend{db: db}
}

func (b BadgerBackend) WriteRoom(room string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+room), data)
	})
	if err != nil {
		return fmt.Errorf("writing room %q: %w", room, err)
	}
	return nil
}

func (b BadgerBackend) LoadAll() (map[string][]byte, error) {
	logs := make(map[string][]byte)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			room := string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				logs[room] = append([]byte(nil), value...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading room logs: %w", err)
	}
	return logs, nil
}
