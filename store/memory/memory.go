package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/store"
)

// MemoryStateStore keeps encoded documents in process memory.
type MemoryStateStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{docs: make(map[string][]byte)}
}

// Save stores state under key.
func (m *MemoryStateStore) Save(_ context.Context, key string, state *graph.PersistedState) error {
	data, err := store.Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = data
	return nil
}

// Load retrieves the state stored under key.
func (m *MemoryStateStore) Load(_ context.Context, key string) (*graph.PersistedState, error) {
	m.mu.RLock()
	data, ok := m.docs[key]
	m.mu.RUnlock()

	if !ok {
		return nil, store.ErrNotFound
	}
	return store.Unmarshal(data)
}

// Delete removes the state stored under key.
func (m *MemoryStateStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

// List returns the stored keys in ascending order.
func (m *MemoryStateStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op.
func (m *MemoryStateStore) Close() error {
	return nil
}
