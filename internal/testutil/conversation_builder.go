package testutil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/transcript"
)

type utterance struct {
	role core.Role
	text string
}

// ConversationBuilder provides a fluent helper for describing a conversation
// once and rendering it as transcript events, raw realtime server events or
// the expected sealed transcript.
//
//	conv := NewConversation().Tutor("¡Hola!").Learner("Hola, ¿qué tal?")
//	events := conv.Events()
type ConversationBuilder struct {
	turns []utterance
}

// NewConversation creates an empty builder.
func NewConversation() *ConversationBuilder { return &ConversationBuilder{} }

// Tutor appends an assistant utterance (chainable).
func (b *ConversationBuilder) Tutor(text string) *ConversationBuilder {
	b.turns = append(b.turns, utterance{role: core.RoleAssistant, text: text})
	return b
}

// Learner appends a user utterance (chainable).
func (b *ConversationBuilder) Learner(text string) *ConversationBuilder {
	b.turns = append(b.turns, utterance{role: core.RoleUser, text: text})
	return b
}

// Events renders each utterance as word deltas followed by a final event.
func (b *ConversationBuilder) Events() []transcript.Event {
	var out []transcript.Event
	for i, u := range b.turns {
		seq := int64(i + 1)
		for _, w := range splitWords(u.text) {
			out = append(out, transcript.Delta(seq, u.role, w))
		}
		out = append(out, transcript.Final(seq, u.role, u.text))
	}
	return out
}

// ServerEvents renders the conversation as raw realtime server events in the
// order the service emits them: item creation, transcript deltas, completion.
func (b *ConversationBuilder) ServerEvents() [][]byte {
	var out [][]byte
	add := func(v map[string]any) {
		data, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		out = append(out, data)
	}

	for i, u := range b.turns {
		itemID := fmt.Sprintf("item_%03d", i+1)
		add(map[string]any{
			"type": "conversation.item.created",
			"item": map[string]any{"id": itemID, "type": "message", "role": string(u.role)},
		})
		if u.role == core.RoleUser {
			for _, w := range splitWords(u.text) {
				add(map[string]any{"type": "conversation.item.input_audio_transcription.delta", "item_id": itemID, "delta": w})
			}
			add(map[string]any{"type": "conversation.item.input_audio_transcription.completed", "item_id": itemID, "transcript": u.text})
			continue
		}
		for _, w := range splitWords(u.text) {
			add(map[string]any{"type": "response.output_audio_transcript.delta", "item_id": itemID, "delta": w})
		}
		add(map[string]any{"type": "response.output_audio_transcript.done", "item_id": itemID, "transcript": u.text})
	}
	return out
}

// Transcript returns the sealed transcript the conversation should produce.
func (b *ConversationBuilder) Transcript() core.Transcript {
	out := make(core.Transcript, 0, len(b.turns))
	for i, u := range b.turns {
		out = append(out, core.Turn{SequenceKey: int64(i + 1), Role: u.role, Text: u.text, Sealed: true})
	}
	return out
}

// Messages renders the conversation in the client submission shape.
func (b *ConversationBuilder) Messages() []transcript.Message {
	out := make([]transcript.Message, 0, len(b.turns))
	for _, u := range b.turns {
		out = append(out, transcript.Message{Role: string(u.role), Content: u.text})
	}
	return out
}

// splitWords splits text keeping the trailing space on every chunk so the
// chunks concatenate back to text.
func splitWords(text string) []string {
	var out []string
	for len(text) > 0 {
		i := strings.IndexByte(text, ' ')
		if i < 0 {
			out = append(out, text)
			break
		}
		out = append(out, text[:i+1])
		text = text[i+1:]
	}
	return out
}
