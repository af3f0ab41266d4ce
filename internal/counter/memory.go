package counter

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and ephemeral runs.
type MemStore struct {
	mu    sync.RWMutex
	items map[Key]uint32
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[Key]uint32)}
}

func (s *MemStore) Load(k Key) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[k], nil
}

func (s *MemStore) Store(k Key, v uint32) error {
	s.mu.Lock()
	s.items[k] = v
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Update(k Key, fn func(uint32) uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.items[k]
	s.items[k] = fn(v)
	return v, nil
}

// Reset drops every record.
func (s *MemStore) Reset() {
	s.mu.Lock()
	s.items = make(map[Key]uint32)
	s.mu.Unlock()
}

// Keys lists stored keys in a stable order.
func (s *MemStore) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
