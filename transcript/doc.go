// Package transcript reduces a stream of realtime transcription events into
// an ordered Transcript of sealed turns.
//
// Each sequence key moves through two states: open while delta events
// accumulate text, sealed once a final event arrives or the aggregator is
// finalized. Events for a sealed key are ignored, which makes replayed and
// duplicate deliveries harmless.
package transcript
