package testutil

import (
	"time"

	"github.com/hupe1980/parlance/core"
)

// RecordBuilder assists in creating session records for store tests.
type RecordBuilder struct {
	rec core.SessionRecord
}

// NewRecordBuilder creates a builder with a Spanish/fizz preference set.
func NewRecordBuilder(id string) *RecordBuilder {
	return &RecordBuilder{rec: core.SessionRecord{
		ID:          id,
		Transcript:  core.Transcript{},
		NewMemories: []string{},
		Preferences: core.PreferenceSet{Language: "es", Persona: "fizz"},
		CreatedAt:   time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}}
}

// Preferences overrides the preference set (chainable).
func (b *RecordBuilder) Preferences(p core.PreferenceSet) *RecordBuilder {
	b.rec.Preferences = p
	return b
}

// Conversation sets the transcript from a conversation builder (chainable).
func (b *RecordBuilder) Conversation(c *ConversationBuilder) *RecordBuilder {
	b.rec.Transcript = c.Transcript()
	return b
}

// Report sets the report text (chainable).
func (b *RecordBuilder) Report(text string) *RecordBuilder {
	b.rec.ReportText = text
	return b
}

// Memories sets the new memories (chainable).
func (b *RecordBuilder) Memories(m ...string) *RecordBuilder {
	b.rec.NewMemories = append([]string{}, m...)
	return b
}

// CreatedAt sets the creation time (chainable).
func (b *RecordBuilder) CreatedAt(t time.Time) *RecordBuilder {
	b.rec.CreatedAt = t
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() *core.SessionRecord {
	rec := b.rec
	rec.Transcript = b.rec.Transcript.Clone()
	rec.NewMemories = append([]string{}, b.rec.NewMemories...)
	return &rec
}
