package ndn

import enc "github.com/named-data/ndnplay/std/encoding"

// Store keeps assembled payloads of versioned objects.
// Versioned objects are immutable, so entries never need revalidation.
type Store interface {
	// Get returns the payload stored under name, or nil if absent.
	Get(name enc.Name) ([]byte, error)
	// Put stores a payload under name, replacing any previous entry.
	Put(name enc.Name, payload []byte) error
	// Remove removes the payload stored under name.
	Remove(name enc.Name) error
	// RemovePrefix removes all payloads under a prefix.
	RemovePrefix(prefix enc.Name) error
	// Close releases the resources held by the store.
	Close() error
}
