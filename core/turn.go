package core

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-attributed utterance identified by its sequence key.
// A turn is only mutated while unsealed.
type Turn struct {
	SequenceKey int64  `json:"seq"`
	Role        Role   `json:"role"`
	Text        string `json:"text"`
	Sealed      bool   `json:"sealed"`
}

// Transcript is the ordered sequence of sealed turns produced once per session.
type Transcript []Turn

// Len returns the number of turns.
func (t Transcript) Len() int { return len(t) }

// Clone returns a copy that can be handed out without exposing the backing array.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
