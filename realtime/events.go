package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/transcript"
)

// Server event types that carry conversation text.
const (
	EventItemCreated              = "conversation.item.created"
	EventItemAdded                = "conversation.item.added"
	EventInputTranscriptDelta     = "conversation.item.input_audio_transcription.delta"
	EventInputTranscriptCompleted = "conversation.item.input_audio_transcription.completed"
	EventOutputAudioDelta         = "response.output_audio_transcript.delta"
	EventOutputAudioDone          = "response.output_audio_transcript.done"
	EventAudioTranscriptDelta     = "response.audio_transcript.delta"
	EventAudioTranscriptDone      = "response.audio_transcript.done"
	EventOutputTextDelta          = "response.output_text.delta"
	EventOutputTextDone           = "response.output_text.done"
	EventError                    = "error"
)

// ServerEvent is the subset of a realtime server event the decoder reads.
type ServerEvent struct {
	Type       string `json:"type"`
	EventID    string `json:"event_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	Delta      string `json:"delta,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Text       string `json:"text,omitempty"`
	Item       *struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Role string `json:"role"`
	} `json:"item,omitempty"`
	Error *ServerError `json:"error,omitempty"`
}

// ServerError is an error event reported by the realtime service.
type ServerError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime %s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("realtime %s: %s", e.Type, e.Message)
}

// Decoder turns server events into transcript events. Sequence keys follow
// the order in which item ids are first seen, so a learner utterance created
// before the tutor's reply sorts before it even when its transcription
// finishes later. A Decoder belongs to one session and is not safe for
// concurrent use.
type Decoder struct {
	keys map[string]int64
	next int64
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{keys: make(map[string]int64)}
}

// Decode parses one raw server event. ok is false for events that carry no
// transcript text. An "error" event is returned as *ServerError.
func (d *Decoder) Decode(data []byte) (ev transcript.Event, ok bool, err error) {
	var se ServerEvent
	if err := json.Unmarshal(data, &se); err != nil {
		return transcript.Event{}, false, fmt.Errorf("decode realtime event: %w", err)
	}
	if se.Type == EventError {
		if se.Error == nil {
			se.Error = &ServerError{Type: "error"}
		}
		return transcript.Event{}, false, se.Error
	}
	ev, ok = d.DecodeEvent(se)
	return ev, ok, nil
}

// DecodeEvent maps an already parsed server event.
func (d *Decoder) DecodeEvent(se ServerEvent) (transcript.Event, bool) {
	switch se.Type {
	case EventItemCreated, EventItemAdded:
		if se.Item != nil && se.Item.ID != "" {
			d.key(se.Item.ID)
		}
		return transcript.Event{}, false
	case EventInputTranscriptDelta:
		return d.event(se.ItemID, core.RoleUser, se.Delta, transcript.KindDelta)
	case EventInputTranscriptCompleted:
		return d.event(se.ItemID, core.RoleUser, se.Transcript, transcript.KindFinal)
	case EventOutputAudioDelta, EventAudioTranscriptDelta, EventOutputTextDelta:
		return d.event(se.ItemID, core.RoleAssistant, se.Delta, transcript.KindDelta)
	case EventOutputAudioDone, EventAudioTranscriptDone:
		return d.event(se.ItemID, core.RoleAssistant, se.Transcript, transcript.KindFinal)
	case EventOutputTextDone:
		return d.event(se.ItemID, core.RoleAssistant, se.Text, transcript.KindFinal)
	default:
		return transcript.Event{}, false
	}
}

func (d *Decoder) event(itemID string, role core.Role, text string, kind transcript.Kind) (transcript.Event, bool) {
	if itemID == "" {
		return transcript.Event{}, false
	}
	return transcript.Event{SequenceKey: d.key(itemID), Role: role, Text: text, Kind: kind}, true
}

func (d *Decoder) key(itemID string) int64 {
	if k, ok := d.keys[itemID]; ok {
		return k
	}
	d.next++
	d.keys[itemID] = d.next
	return d.next
}
