package storage

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	enc "github.com/named-data/ndnplay/std/encoding"
)

// MemoryStore is an in-memory payload store evicting the least recently used
// object once it holds capacity objects.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

func NewMemoryStore(capacity int) (*MemoryStore, error) {
	cache, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) String() string {
	return "memory-store"
}

func (s *MemoryStore) Get(name enc.Name) ([]byte, error) {
	payload, _ := s.cache.Get(nameKey(name))
	return payload, nil
}

func (s *MemoryStore) Put(name enc.Name, payload []byte) error {
	s.cache.Add(nameKey(name), payload)
	return nil
}

func (s *MemoryStore) Remove(name enc.Name) error {
	s.cache.Remove(nameKey(name))
	return nil
}

func (s *MemoryStore) RemovePrefix(prefix enc.Name) error {
	pfx := nameKey(prefix)
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, pfx) {
			s.cache.Remove(key)
		}
	}
	return nil
}

func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}

// nameKey is the concatenation of the component TLVs. A name is a prefix
// of another exactly when its key is a byte prefix of the other key.
func nameKey(name enc.Name) string {
	return string(name.BytesInner())
}
