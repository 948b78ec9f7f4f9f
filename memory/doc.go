// Package memory contains concrete core.MemoryStore implementations. The
// store interface and MemoryFact type reside in the core package; select an
// implementation (like the in-memory store below, or the SQLite store in
// package store) at wiring time.
package memory
