package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/parlance/core"
)

// DefaultListLimit bounds ListRecords when the caller passes limit <= 0.
const DefaultListLimit = 50

// InMemoryStore is a volatile RecordStore storing records in a process local
// map. It is safe for concurrent access and best suited for tests or
// ephemeral servers. Records are cloned on the way in and out so callers
// cannot mutate stored state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*core.SessionRecord
}

// NewInMemoryStore constructs an empty in-memory record store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*core.SessionRecord)}
}

// SaveRecord stores a clone of rec, overwriting any record with the same id.
func (s *InMemoryStore) SaveRecord(_ context.Context, rec *core.SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// GetRecord returns a clone of the record with the given id.
func (s *InMemoryStore) GetRecord(_ context.Context, id string) (*core.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// ListRecords returns records newest first.
func (s *InMemoryStore) ListRecords(_ context.Context, limit int) ([]core.SessionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	out := make([]core.SessionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *cloneRecord(rec))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(rec *core.SessionRecord) *core.SessionRecord {
	cp := *rec
	cp.Transcript = rec.Transcript.Clone()
	if rec.NewMemories != nil {
		cp.NewMemories = append([]string{}, rec.NewMemories...)
	}
	return &cp
}
