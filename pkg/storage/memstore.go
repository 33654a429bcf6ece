package storage

import (
	"strings"
	"sync"
)

// MemStore - in-memory Store, used for tests and for sessions that opt out of
// persistence entirely
type MemStore struct {
	itemsMutex sync.RWMutex
	items      map[string][]byte
	failure    error
}

// NewMemStore - creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		items: make(map[string][]byte),
	}
}

// FailWith - makes every following operation return err, simulating a
// disabled or full storage medium. Pass nil to restore normal behavior.
func (m *MemStore) FailWith(err error) {
	m.itemsMutex.Lock()
	defer m.itemsMutex.Unlock()
	m.failure = err
}

// Get - returns the value for key
func (m *MemStore) Get(key string) ([]byte, error) {
	m.itemsMutex.RLock()
	defer m.itemsMutex.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}
	value, ok := m.items[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// Set - stores value under key
func (m *MemStore) Set(key string, value []byte) error {
	m.itemsMutex.Lock()
	defer m.itemsMutex.Unlock()
	if m.failure != nil {
		return m.failure
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	m.items[key] = copied
	return nil
}

// Remove - deletes key, absent keys are not an error
func (m *MemStore) Remove(key string) error {
	m.itemsMutex.Lock()
	defer m.itemsMutex.Unlock()
	if m.failure != nil {
		return m.failure
	}
	delete(m.items, key)
	return nil
}

// Keys - enumerates stored keys with the given prefix
func (m *MemStore) Keys(prefix string) ([]string, error) {
	m.itemsMutex.RLock()
	defer m.itemsMutex.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}
	keys := []string{}
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
