package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/internal/testutil"
)

var (
	_ core.MemoryStore    = (*SQLiteStore)(nil)
	_ core.RecordStore    = (*SQLiteStore)(nil)
	_ core.MemorySearcher = (*SQLiteStore)(nil)
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Memories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.AppendMemories(ctx, "fizz", []string{"Learner is a teacher", "", "Learner skates"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Len(t, created[0].ID, 26)

	_, err = s.AppendMemories(ctx, "sofia", []string{"Learner sells candles"})
	require.NoError(t, err)

	facts, err := s.Memories(ctx, "fizz")
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner is a teacher", "Learner skates"}, core.FactTexts(facts))
	assert.Equal(t, "fizz", facts[0].PersonaID)
	assert.WithinDuration(t, time.Now(), facts[0].CreatedAt, time.Minute)

	require.NoError(t, s.ClearMemories(ctx, "fizz"))
	facts, err = s.Memories(ctx, "fizz")
	require.NoError(t, err)
	assert.Empty(t, facts)

	other, _ := s.Memories(ctx, "sofia")
	assert.Len(t, other, 1)

	_, err = s.AppendMemories(ctx, "", []string{"x"})
	assert.Error(t, err)
}

func TestSQLiteStore_Records(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveRecord(ctx, &core.SessionRecord{
			ID: fmt.Sprintf("rec-%d", i),
			Transcript: core.Transcript{
				{SequenceKey: 1, Role: core.RoleAssistant, Text: "Ciao!", Sealed: true},
				{SequenceKey: 2, Role: core.RoleUser, Text: "Ciao, come stai?", Sealed: true},
			},
			ReportText:  fmt.Sprintf("report %d", i),
			NewMemories: []string{"Learner visited Rome"},
			Preferences: core.PreferenceSet{Language: "it", Persona: "marcus", Speed: core.SpeedFast},
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := s.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "report 1", got.ReportText)
	assert.Equal(t, core.SpeedFast, got.Preferences.Speed)
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, "Ciao, come stai?", got.Transcript[1].Text)
	assert.Equal(t, base.Add(time.Hour), got.CreatedAt)

	recs, err := s.ListRecords(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec-2", recs[0].ID)
	assert.Equal(t, "rec-1", recs[1].ID)

	_, err = s.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrRecordNotFound)

	assert.Error(t, s.SaveRecord(ctx, nil))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "parlance.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.AppendMemories(ctx, "jazz", []string{"Learner hikes"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	facts, err := s2.Memories(ctx, "jazz")
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner hikes"}, core.FactTexts(facts))
}

func TestSQLiteStore_SaveRecordReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	conv := testutil.NewConversation().Tutor("Olá!").Learner("Oi, tudo bem?")

	rec := testutil.NewRecordBuilder("rec-pt").
		Preferences(core.PreferenceSet{Language: "pt", Persona: "sofia"}).
		Conversation(conv).
		Report("first").
		Build()
	require.NoError(t, s.SaveRecord(ctx, rec))

	rec.ReportText = "second"
	rec.NewMemories = []string{"Learner is from Porto"}
	require.NoError(t, s.SaveRecord(ctx, rec))

	got, err := s.GetRecord(ctx, "rec-pt")
	require.NoError(t, err)
	assert.Equal(t, "second", got.ReportText)
	assert.Equal(t, []string{"Learner is from Porto"}, got.NewMemories)
	assert.Equal(t, conv.Transcript(), got.Transcript)

	recs, err := s.ListRecords(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSQLiteStore_Search(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.AppendMemories(ctx, "jazz", []string{"Learner plays Jazz piano", "Learner has a dog", "Learner saves 100% of tips", "Learner likes jazz clubs"})
	require.NoError(t, err)

	got, err := s.Search(ctx, "jazz", "JAZZ", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner plays Jazz piano", "Learner likes jazz clubs"}, core.FactTexts(got))

	got, err = s.Search(ctx, "jazz", "jazz", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.Search(ctx, "jazz", "100%", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner saves 100% of tips"}, core.FactTexts(got))

	got, err = s.Search(ctx, "fizz", "jazz", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
