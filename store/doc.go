// Package store provides a durable SQLite backend implementing both
// core.MemoryStore and core.RecordStore. It uses the pure-Go modernc.org/sqlite
// driver, so no cgo toolchain is required.
package store
