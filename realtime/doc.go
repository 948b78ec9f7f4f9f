// Package realtime talks to the realtime-voice service: it builds the session
// configuration payload, exchanges it for a short-lived client credential and
// decodes the transcription events of a live session.
//
// Audio capture, playback and media negotiation stay with the client; this
// package only handles the text side of the conversation.
package realtime
