package state

import (
	"context"
	"encoding/json"
	"sync"

	"ExclusiveScanner/internal/ports"
)

// MemoryStore is a process-local DocumentStore.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

var _ ports.DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

// GetDocument implements ports.DocumentStore.
func (m *MemoryStore) GetDocument(_ context.Context, key string, v any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.docs[key]
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// PutDocument implements ports.DocumentStore.
func (m *MemoryStore) PutDocument(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.docs[key] = raw
	m.mu.Unlock()
	return nil
}
