// Package cache provides the grammar cache collaborator: opaque get/put
// storage keyed by ontology content hash. Two backends are available, an
// in-memory map for single-process use and a SQLite store that survives
// restarts.
package cache

import "sync"

// Cache stores opaque values by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves a value. The second return is false when the key is absent.
	Get(key string) ([]byte, bool, error)

	// Put stores a value, replacing any existing entry for the key.
	Put(key string, value []byte) error

	// Close releases backend resources.
	Close() error
}

// Memory is a process-local cache backed by a mutex-guarded map.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get retrieves a value by key.
func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Put stores a value by key.
func (m *Memory) Put(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.mu.Lock()
	m.entries[key] = stored
	m.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory cache.
func (m *Memory) Close() error {
	return nil
}
