package transcript

import "github.com/hupe1980/parlance/core"

// Kind distinguishes streaming fragments from the completed text of a turn.
type Kind string

const (
	KindDelta Kind = "delta"
	KindFinal Kind = "final"
)

// Event is one transcription update for a turn.
type Event struct {
	SequenceKey int64     `json:"seq"`
	Role        core.Role `json:"role,omitempty"`
	Text        string    `json:"text"`
	Kind        Kind      `json:"kind"`
}

// Delta returns a delta event.
func Delta(seq int64, role core.Role, text string) Event {
	return Event{SequenceKey: seq, Role: role, Text: text, Kind: KindDelta}
}

// Final returns a final event.
func Final(seq int64, role core.Role, text string) Event {
	return Event{SequenceKey: seq, Role: role, Text: text, Kind: KindFinal}
}
