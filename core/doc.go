// Package core provides the foundational domain types and interfaces shared by
// every parlance component:
//
//   - PreferenceSet (the learner's per-session language/persona/pace choices)
//   - Persona (a conversational character with voice and base instructions)
//   - Turn / Transcript (sealed, ordered conversation history)
//   - MemoryFact (short persona-scoped statements about the learner)
//   - SessionRecord (the persisted outcome of one practice session)
//   - Credential (the short-lived realtime-voice authorization)
//
// It also defines the typed error taxonomy used at every boundary and the
// small store interfaces (MemoryStore, RecordStore) that persistence backends
// implement. Implementation concerns stay out of this package.
package core
