// Package session persists chat sessions, memory items, consent, reminders
// and the interaction history in a local key-value store.
package session

import (
	"sync"
)

// KV is a local key-value store holding JSON documents.
//
// Get returns only the keys that exist. Set writes every given key in one
// call; implementations apply the batch atomically where they can.
type KV interface {
	Get(keys ...string) (map[string][]byte, error)
	Set(values map[string][]byte) error
}

// MemoryKV keeps values in memory. It is used for ephemeral runs and tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get returns copies of the stored values for keys.
func (m *MemoryKV) Get(keys ...string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Set stores copies of values.
func (m *MemoryKV) Set(values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}
