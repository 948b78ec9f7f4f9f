package core

// Speed selects the tutor's speaking pace.
type Speed string

const (
	SpeedSlow   Speed = "slow"
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
)

// Level selects the vocabulary and grammar complexity.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelFluent       Level = "fluent"
)

// Style selects the register of the conversation.
type Style string

const (
	StyleFormal Style = "formal"
	StyleCasual Style = "casual"
	StyleSlang  Style = "slang"
)

// PreferenceSet is the five-field configuration a learner selects per session.
// Values are kept as plain strings on the wire; unknown values are never
// rejected and resolve to registry defaults instead.
type PreferenceSet struct {
	Language string `json:"language"`
	Persona  string `json:"personality"`
	Speed    Speed  `json:"speed"`
	Level    Level  `json:"level"`
	Style    Style  `json:"style"`
}
