package storage

import (
	"errors"
	"sync"
)

// ErrKeyNotFound is returned when a key doesn't exist in the store.
var ErrKeyNotFound = errors.New("key not found")

// ErrChecksum is returned when a stored value fails checksum verification.
var ErrChecksum = errors.New("checksum mismatch")

// Store is the key-value persistence both processes write through.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a value by key, ErrKeyNotFound if absent.
	Get(key string) ([]byte, error)

	// Put stores a value, overwriting any existing value for the key.
	Put(key string, value []byte) error

	// Delete removes a key-value pair. No error if the key is absent.
	Delete(key string) error

	// List returns all keys, in no particular order.
	List() ([]string, error)
}

// MemoryStore keeps values in a map. Used by tests and when no data
// directory is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get retrieves a value by key. The returned slice is a copy.
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[key]
	if !exists {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a copy of value under key.
func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Delete removes a key-value pair, idempotently.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// List returns all keys.
func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys, nil
}
