// Package history houses in-process implementations of core.RecordStore, the
// archive of completed practice sessions. The SQLite implementation lives in
// package store.
package history
