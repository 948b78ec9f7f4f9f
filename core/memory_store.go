package core

import (
	"context"
	"time"
)

// MemoryFact is a short durable statement about the learner, scoped to the
// persona that learned it. The 100 character limit is part of the generation
// contract and is not enforced locally.
type MemoryFact struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	Text      string    `json:"memory"`
	CreatedAt time.Time `json:"timestamp"`
}

// FactTexts extracts the text of each fact preserving order.
func FactTexts(facts []MemoryFact) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, f.Text)
	}
	return out
}

// MemoryStore persists persona-scoped memory facts. The core only reads
// existing facts and appends new ones; ClearMemories exists for the external
// bulk-delete operation.
type MemoryStore interface {
	// Memories returns the persona's facts ordered oldest first.
	Memories(ctx context.Context, personaID string) ([]MemoryFact, error)

	// AppendMemories stores the given texts and returns the created facts.
	AppendMemories(ctx context.Context, personaID string, texts []string) ([]MemoryFact, error)

	// ClearMemories removes every fact of the persona.
	ClearMemories(ctx context.Context, personaID string) error
}

// MemorySearcher is implemented by stores that can filter a persona's facts
// by a case-insensitive substring. limit <= 0 returns every match.
type MemorySearcher interface {
	Search(ctx context.Context, personaID, query string, limit int) ([]MemoryFact, error)
}
