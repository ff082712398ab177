package store

import (
	"slices"
	"sync"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record // keyed by digest
	order   []string          // digests, oldest first
	closed  bool
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Put stores r, replacing any record with the same digest.
func (m *MemoryStore) Put(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, exists := m.records[r.Digest]; exists {
		m.order = slices.DeleteFunc(m.order, func(d string) bool { return d == r.Digest })
	}
	m.records[r.Digest] = r
	m.order = append(m.order, r.Digest)
	return nil
}

// Get returns the record for digest.
func (m *MemoryStore) Get(digest string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Record{}, false, ErrClosed
	}

	r, ok := m.records[digest]
	return r, ok, nil
}

// List returns up to limit records, newest first.
func (m *MemoryStore) List(limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	n := len(m.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(m.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.records[m.order[i]])
	}
	return out, nil
}

// Close marks the store closed. Closing twice is a no-op.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
