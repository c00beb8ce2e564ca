// ABOUTME: Store interface and the in-memory implementation
// ABOUTME: Memory is used by tests and ephemeral (no data dir) runs

package kvstore

import (
	"context"
	"sync"
)

// Store is a namespaced key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for (namespace, key). The boolean reports
	// whether the key was present.
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)

	// Set writes the value for (namespace, key), overwriting any previous
	// value.
	Set(ctx context.Context, namespace, key string, value []byte) error

	// Delete removes (namespace, key). Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, namespace, key string) error

	// Close releases backend resources.
	Close() error
}

// Memory is an in-process Store backed by maps.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ns, ok := m.data[namespace]
	if !ok {
		return nil, false, nil
	}
	value, ok := ns[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers can't mutate stored state.
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[namespace] = ns
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	ns[key] = stored
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ns, ok := m.data[namespace]; ok {
		delete(ns, key)
	}
	return nil
}

// Close implements Store. It is a no-op for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}
