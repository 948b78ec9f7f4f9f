package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/parlance/core"
)

const recordedEvents = `{"type":"session.created"}
{"type":"conversation.item.created","item":{"id":"item_a","type":"message","role":"assistant"}}
{"type":"response.output_audio_transcript.delta","item_id":"item_a","delta":"Ciao! "}
{"type":"response.output_audio_transcript.delta","item_id":"item_a","delta":"Come stai?"}
{"type":"conversation.item.created","item":{"id":"item_u","type":"message","role":"user"}}
{"type":"error","error":{"type":"invalid_request_error","message":"ignored"}}

{"type":"conversation.item.input_audio_transcription.completed","item_id":"item_u","transcript":"Bene, grazie."}
`

func writeEvents(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReplayFile(t *testing.T) {
	tr, serverErrors, err := replayFile(writeEvents(t, recordedEvents))
	require.NoError(t, err)

	assert.Equal(t, 1, serverErrors)
	assert.Equal(t, core.Transcript{
		{SequenceKey: 1, Role: core.RoleAssistant, Text: "Ciao! Come stai?", Sealed: true},
		{SequenceKey: 2, Role: core.RoleUser, Text: "Bene, grazie.", Sealed: true},
	}, tr)
}

func TestReplayFile_Errors(t *testing.T) {
	_, _, err := replayFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)

	_, _, err = replayFile(writeEvents(t, "{\"type\":\"session.created\"}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestReplayCommand(t *testing.T) {
	out, err := execute(t, "replay", writeEvents(t, recordedEvents))
	require.NoError(t, err)
	assert.Equal(t, "Tutor: Ciao! Come stai?\nLearner: Bene, grazie.\n", out)
}

func TestCompileCommand(t *testing.T) {
	out, err := execute(t, "compile", "--language", "fr", "--personality", "fizz", "--memory", "Learner bakes bread")
	require.NoError(t, err)
	assert.Contains(t, out, "- Learner bakes bread")
	assert.Contains(t, out, "French")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "warm greeting in French!"))
}

func TestPersonasCommand(t *testing.T) {
	out, err := execute(t, "personas")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "fizz")
	assert.Contains(t, out, "marcus")
}
