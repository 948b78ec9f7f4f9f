package realtime

import (
	"strings"

	"github.com/hupe1980/parlance/core"
)

const (
	// DefaultModel is the realtime model requested for new sessions.
	DefaultModel = "gpt-4o-realtime-preview-2024-12-17"
	// DefaultTranscriptionModel transcribes learner audio.
	DefaultTranscriptionModel = "gpt-4o-mini-transcribe"
	// DefaultVoice is used when the persona has no voice.
	DefaultVoice = "alloy"
	// DefaultSilenceMs is used when the persona has no turn silence.
	DefaultSilenceMs = 1200

	vadThreshold       = 0.5
	vadPrefixPaddingMs = 300
)

// ConfigPayload is the session configuration sent to the provisioning service.
type ConfigPayload struct {
	Type         string      `json:"type"`
	Model        string      `json:"model"`
	Instructions string      `json:"instructions"`
	Audio        AudioConfig `json:"audio"`
}

// AudioConfig groups input and output audio settings.
type AudioConfig struct {
	Input  InputAudio  `json:"input"`
	Output OutputAudio `json:"output"`
}

// InputAudio configures transcription and turn detection of learner audio.
type InputAudio struct {
	Transcription Transcription `json:"transcription"`
	TurnDetection TurnDetection `json:"turn_detection"`
}

// Transcription selects the transcription model and locale.
type Transcription struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

// TurnDetection configures server-side voice activity detection.
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

// OutputAudio selects the synthesized voice.
type OutputAudio struct {
	Voice string `json:"voice"`
}

// ConfigOptions overrides the model identifiers used by BuildConfig.
type ConfigOptions struct {
	Model              string
	TranscriptionModel string
}

// BuildConfig assembles the payload for a session using persona's voice and
// turn silence. language is the learner's target language code and becomes
// the transcription locale.
func BuildConfig(instructions string, persona core.Persona, language string, optFns ...func(o *ConfigOptions)) ConfigPayload {
	opts := ConfigOptions{
		Model:              DefaultModel,
		TranscriptionModel: DefaultTranscriptionModel,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.TranscriptionModel == "" {
		opts.TranscriptionModel = DefaultTranscriptionModel
	}

	voice := persona.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	silence := persona.TurnSilenceMs
	if silence <= 0 {
		silence = DefaultSilenceMs
	}

	return ConfigPayload{
		Type:         "realtime",
		Model:        opts.Model,
		Instructions: instructions,
		Audio: AudioConfig{
			Input: InputAudio{
				Transcription: Transcription{
					Model:    opts.TranscriptionModel,
					Language: strings.ToLower(strings.TrimSpace(language)),
				},
				TurnDetection: TurnDetection{
					Type:              "server_vad",
					Threshold:         vadThreshold,
					PrefixPaddingMs:   vadPrefixPaddingMs,
					SilenceDurationMs: silence,
				},
			},
			Output: OutputAudio{Voice: voice},
		},
	}
}
