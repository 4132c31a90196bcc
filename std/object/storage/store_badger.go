//go:build !js

package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
	enc "github.com/named-data/ndnplay/std/encoding"
)

// BadgerStore is a persistent payload store using badger.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}

	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) String() string {
	return "badger-store"
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Get(name enc.Name) (payload []byte, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(name.BytesInner())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	return
}

func (s *BadgerStore) Put(name enc.Name, payload []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(name.BytesInner(), payload)
	})
}

func (s *BadgerStore) Remove(name enc.Name) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(name.BytesInner())
	})
}

func (s *BadgerStore) RemovePrefix(prefix enc.Name) error {
	keyPfx := prefix.BytesInner()

	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // keys only
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPfx); it.ValidForPrefix(keyPfx); it.Next() {
			key := it.Item().KeyCopy(nil)
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
