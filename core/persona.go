package core

// Persona is a named conversational character with a fixed voice and base
// instruction text. Voice and TurnSilenceMs may be empty/zero, in which case
// the realtime configuration applies its own defaults.
type Persona struct {
	ID            string `json:"id" yaml:"id"`
	DisplayName   string `json:"name" yaml:"name"`
	Voice         string `json:"voice,omitempty" yaml:"voice"`
	BasePrompt    string `json:"-" yaml:"prompt"`
	TurnSilenceMs int    `json:"turnSilenceMs,omitempty" yaml:"turn_silence_ms"`
}

// Meta returns the public identity of the persona.
func (p Persona) Meta() PersonaMeta {
	return PersonaMeta{ID: p.ID, DisplayName: p.DisplayName}
}

// PersonaMeta is the subset of a persona echoed back to clients.
type PersonaMeta struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
}
