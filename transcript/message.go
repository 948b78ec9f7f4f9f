package transcript

import (
	"strings"

	"github.com/hupe1980/parlance/core"
)

// Message is a role-labeled utterance as submitted by clients that hold the
// conversation themselves. Content and Text are accepted interchangeably.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Body returns the message text, preferring Content.
func (m Message) Body() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Text
}

// NormalizeRole maps client role labels onto core roles. Anything that is not
// clearly the learner is attributed to the tutor.
func NormalizeRole(role string) core.Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "learner", "human":
		return core.RoleUser
	default:
		return core.RoleAssistant
	}
}

// FromMessages converts messages into a sealed transcript, assigning sequence
// keys in submission order. Messages without text are dropped.
func FromMessages(msgs []Message) core.Transcript {
	out := make(core.Transcript, 0, len(msgs))
	for _, m := range msgs {
		text := strings.TrimSpace(m.Body())
		if text == "" {
			continue
		}
		out = append(out, core.Turn{
			SequenceKey: int64(len(out) + 1),
			Role:        NormalizeRole(m.Role),
			Text:        text,
			Sealed:      true,
		})
	}
	return out
}
