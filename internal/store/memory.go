package store

import (
	"sort"
	"sync"
	"time"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

// MemoryDedup is an in-memory dedup.Store for tests.
type MemoryDedup struct {
	mu      sync.Mutex
	records map[string]time.Time
}

// NewMemoryDedup creates an empty in-memory dedup store.
func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{records: make(map[string]time.Time)}
}

func (m *MemoryDedup) Get(hash string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	firstSeen, ok := m.records[hash]
	return firstSeen, ok, nil
}

func (m *MemoryDedup) Put(hash string, firstSeen time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[hash]; !exists {
		m.records[hash] = firstSeen
	}
	return nil
}

func (m *MemoryDedup) DeleteBefore(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for hash, firstSeen := range m.records {
		if firstSeen.Before(cutoff) {
			delete(m.records, hash)
			removed++
		}
	}
	return removed, nil
}

// MemoryQueue is an in-memory queue.Store for tests.
type MemoryQueue struct {
	mu      sync.Mutex
	entries map[string]*domain.PersistedTransaction
	order   map[string]int
	next    int
}

// NewMemoryQueue creates an empty in-memory queue store.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		entries: make(map[string]*domain.PersistedTransaction),
		order:   make(map[string]int),
	}
}

func (m *MemoryQueue) Put(txn *domain.PersistedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *txn
	m.entries[txn.ID] = &copied
	if _, exists := m.order[txn.ID]; !exists {
		m.order[txn.ID] = m.next
		m.next++
	}
	return nil
}

func (m *MemoryQueue) List() ([]*domain.PersistedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txns := make([]*domain.PersistedTransaction, 0, len(m.entries))
	for _, txn := range m.entries {
		copied := *txn
		txns = append(txns, &copied)
	}
	sort.Slice(txns, func(i, j int) bool {
		return m.order[txns[i].ID] < m.order[txns[j].ID]
	})
	return txns, nil
}

func (m *MemoryQueue) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	delete(m.order, id)
	return nil
}

func (m *MemoryQueue) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}
