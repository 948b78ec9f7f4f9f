package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/parlance/core"
)

// InMemoryStore is a process-local MemoryStore keyed by persona id. Facts are
// kept in insertion order.
//
// Concurrency: protected by RWMutex. Returned slices are copies.
type InMemoryStore struct {
	mu    sync.RWMutex
	facts map[string][]core.MemoryFact // personaID -> facts
	seq   int
	now   func() time.Time
}

// NewInMemoryStore creates a new in-memory memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		facts: make(map[string][]core.MemoryFact),
		now:   time.Now,
	}
}

// Memories returns the persona's facts, oldest first.
func (m *InMemoryStore) Memories(_ context.Context, personaID string) ([]core.MemoryFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.facts[personaID]
	out := make([]core.MemoryFact, len(stored))
	copy(out, stored)
	return out, nil
}

// AppendMemories stores each non-empty text as a new fact generating a
// simple incremental id.
func (m *InMemoryStore) AppendMemories(_ context.Context, personaID string, texts []string) ([]core.MemoryFact, error) {
	if personaID == "" {
		return nil, fmt.Errorf("persona id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	created := make([]core.MemoryFact, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		m.seq++
		fact := core.MemoryFact{
			ID:        fmt.Sprintf("mem_%d", m.seq),
			PersonaID: personaID,
			Text:      text,
			CreatedAt: now,
		}
		m.facts[personaID] = append(m.facts[personaID], fact)
		created = append(created, fact)
	}
	return created, nil
}

// ClearMemories removes every fact of the persona.
func (m *InMemoryStore) ClearMemories(_ context.Context, personaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.facts, personaID)
	return nil
}

// Search performs a case-insensitive substring match over the persona's
// facts, returning at most limit results (all when limit <= 0).
func (m *InMemoryStore) Search(_ context.Context, personaID, query string, limit int) ([]core.MemoryFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	results := make([]core.MemoryFact, 0)
	for _, f := range m.facts[personaID] {
		if limit > 0 && len(results) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(f.Text), q) {
			results = append(results, f)
		}
	}
	return results, nil
}
