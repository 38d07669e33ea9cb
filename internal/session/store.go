package session

import "sync"

// Store is a per-token key-value bag for anonymous visitors. It is injected
// wherever request-scoped state is needed so the backing storage can be
// swapped without touching business logic.
type Store interface {
	Get(token, key string) (interface{}, bool)
	Put(token, key string, value interface{})
	// Update applies fn to the current value and stores the result, all
	// under the store lock, so concurrent mutations of the same key are
	// serialized. fn must return the replacement value, not mutate the
	// old one in place: Get hands earlier snapshots to readers.
	Update(token, key string, fn func(value interface{}, ok bool) interface{})
	Delete(token, key string)
	Drop(token string)
}

type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]interface{}
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]interface{})}
}

func (m *Memory) Get(token, key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bag, ok := m.data[token]
	if !ok {
		return nil, false
	}
	v, ok := bag[key]
	return v, ok
}

func (m *Memory) Put(token, key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bag, ok := m.data[token]
	if !ok {
		bag = make(map[string]interface{})
		m.data[token] = bag
	}
	bag[key] = value
}

func (m *Memory) Update(token, key string, fn func(value interface{}, ok bool) interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bag, ok := m.data[token]
	if !ok {
		bag = make(map[string]interface{})
		m.data[token] = bag
	}
	v, ok := bag[key]
	bag[key] = fn(v, ok)
}

func (m *Memory) Delete(token, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bag, ok := m.data[token]; ok {
		delete(bag, key)
		if len(bag) == 0 {
			delete(m.data, token)
		}
	}
}

func (m *Memory) Drop(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, token)
}
