package state

import (
	"sort"
	"sync"
)

// MemoryStore is a Store that keeps summaries in a map.
type MemoryStore struct {
	mu        sync.Mutex
	summaries map[string]Summary
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{summaries: make(map[string]Summary)}
}

func (m *MemoryStore) Load(sessionID string) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[sessionID]
	if !ok {
		return Summary{}, ErrNoSummary
	}
	return s, nil
}

func (m *MemoryStore) Save(s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[s.SessionID] = s
	return nil
}

func (m *MemoryStore) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.summaries, sessionID)
	return nil
}

func (m *MemoryStore) List() ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, 0, len(m.summaries))
	for _, s := range m.summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}
