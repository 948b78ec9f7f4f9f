package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/parlance/core"
)

func TestAggregator_DeltaThenFinal(t *testing.T) {
	a := New()

	assert.True(t, a.OnEvent(Delta(1, core.RoleUser, "Hola")))
	assert.True(t, a.OnEvent(Event{SequenceKey: 1, Kind: KindDelta, Text: ", ¿cómo"}))
	final := Event{SequenceKey: 1, Kind: KindFinal, Text: "Hola, ¿cómo estás?"}
	assert.True(t, a.OnEvent(final))

	// Replaying the final event is a no-op.
	assert.False(t, a.OnEvent(final))
	assert.False(t, a.OnEvent(Delta(1, core.RoleUser, " extra")))

	tr, err := a.Finalize()
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, core.Turn{SequenceKey: 1, Role: core.RoleUser, Text: "Hola, ¿cómo estás?", Sealed: true}, tr[0])
}

func TestAggregator_FinalWithoutTextKeepsDeltas(t *testing.T) {
	a := New()
	a.OnEvent(Delta(4, core.RoleAssistant, "Bon"))
	a.OnEvent(Delta(4, core.RoleAssistant, "jour"))
	a.OnEvent(Final(4, "", ""))

	tr, err := a.Finalize()
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, "Bonjour", tr[0].Text)
	assert.Equal(t, core.RoleAssistant, tr[0].Role)
	assert.True(t, tr[0].Sealed)
}

func TestAggregator_FinalizeForceSealsAndOrders(t *testing.T) {
	a := New()
	a.OnEvent(Delta(7, core.RoleAssistant, "later"))
	a.OnEvent(Final(2, core.RoleUser, "first"))
	a.OnEvent(Delta(3, core.RoleUser, "half a sent"))
	assert.Equal(t, 2, a.Open())

	snap := a.Snapshot()
	require.Len(t, snap, 3)
	assert.False(t, snap[1].Sealed)

	tr, err := a.Finalize()
	require.NoError(t, err)
	require.Len(t, tr, 3)

	keys := []int64{tr[0].SequenceKey, tr[1].SequenceKey, tr[2].SequenceKey}
	assert.Equal(t, []int64{2, 3, 7}, keys)
	assert.Equal(t, "half a sent", tr[1].Text)
	for _, turn := range tr {
		assert.True(t, turn.Sealed)
	}
	assert.Zero(t, a.Open())
}

func TestAggregator_FinalizeOnce(t *testing.T) {
	a := New()
	a.OnEvent(Final(1, core.RoleUser, "hi"))

	_, err := a.Finalize()
	require.NoError(t, err)

	assert.False(t, a.OnEvent(Final(2, core.RoleAssistant, "too late")))

	_, err = a.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestAggregator_IgnoresUnknownKind(t *testing.T) {
	a := New()
	assert.False(t, a.OnEvent(Event{SequenceKey: 1, Kind: "partial", Text: "x"}))

	tr, err := a.Finalize()
	require.NoError(t, err)
	assert.Empty(t, tr)
}

func TestAggregator_RoleFromFirstNonEmpty(t *testing.T) {
	a := New()
	a.OnEvent(Delta(1, "", "a"))
	a.OnEvent(Delta(1, core.RoleUser, "b"))
	a.OnEvent(Final(1, core.RoleAssistant, ""))

	tr, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, tr[0].Role)
	assert.Equal(t, "ab", tr[0].Text)
}
