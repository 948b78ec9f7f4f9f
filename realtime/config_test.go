package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/parlance/core"
)

func TestBuildConfig_Shape(t *testing.T) {
	persona := core.Persona{ID: "fizz", Voice: "verse", TurnSilenceMs: 1000}
	payload := BuildConfig("be Fizz", persona, "FR")

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "realtime",
		"model": "gpt-4o-realtime-preview-2024-12-17",
		"instructions": "be Fizz",
		"audio": {
			"input": {
				"transcription": {"model": "gpt-4o-mini-transcribe", "language": "fr"},
				"turn_detection": {"type": "server_vad", "threshold": 0.5, "prefix_padding_ms": 300, "silence_duration_ms": 1000}
			},
			"output": {"voice": "verse"}
		}
	}`, string(data))
}

func TestBuildConfig_Defaults(t *testing.T) {
	payload := BuildConfig("x", core.Persona{ID: "custom"}, "", func(o *ConfigOptions) {
		o.Model = "gpt-realtime"
		o.TranscriptionModel = ""
	})

	assert.Equal(t, "gpt-realtime", payload.Model)
	assert.Equal(t, DefaultTranscriptionModel, payload.Audio.Input.Transcription.Model)
	assert.Equal(t, DefaultVoice, payload.Audio.Output.Voice)
	assert.Equal(t, DefaultSilenceMs, payload.Audio.Input.TurnDetection.SilenceDurationMs)
	assert.Empty(t, payload.Audio.Input.Transcription.Language)
}
