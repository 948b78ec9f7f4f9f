package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/parlance/core"
)

func TestFromMessages(t *testing.T) {
	tr := FromMessages([]Message{
		{Role: "assistant", Content: "¡Hola! ¿Cómo estás?"},
		{Role: "user", Text: "Bien, gracias"},
		{Role: "user", Content: "   "},
		{Role: "Learner", Content: "Y tú?", Text: "ignored"},
	})

	assert.Equal(t, core.Transcript{
		{SequenceKey: 1, Role: core.RoleAssistant, Text: "¡Hola! ¿Cómo estás?", Sealed: true},
		{SequenceKey: 2, Role: core.RoleUser, Text: "Bien, gracias", Sealed: true},
		{SequenceKey: 3, Role: core.RoleUser, Text: "Y tú?", Sealed: true},
	}, tr)

	assert.Empty(t, FromMessages(nil))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, core.RoleUser, NormalizeRole(" USER "))
	assert.Equal(t, core.RoleUser, NormalizeRole("human"))
	assert.Equal(t, core.RoleAssistant, NormalizeRole("tutor"))
	assert.Equal(t, core.RoleAssistant, NormalizeRole(""))
}
