package kvstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps values in process memory. A positive MaxBytes bounds the
// total size of keys plus values, mirroring a browser storage quota.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]string
	size     int
	MaxBytes int
}

// NewMemoryStore creates an empty store; maxBytes <= 0 disables the quota.
func NewMemoryStore(maxBytes int) *MemoryStore {
	return &MemoryStore{data: make(map[string]string), MaxBytes: maxBytes}
}

func (m *MemoryStore) Read(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStore) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newSize := m.size + len(key) + len(value)
	if old, ok := m.data[key]; ok {
		newSize -= len(key) + len(old)
	}
	if m.MaxBytes > 0 && newSize > m.MaxBytes {
		return fmt.Errorf("%w: writing %q needs %d bytes, limit %d", ErrQuotaExceeded, key, newSize, m.MaxBytes)
	}
	m.data[key] = value
	m.size = newSize
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.size -= len(key) + len(old)
		delete(m.data, key)
	}
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
