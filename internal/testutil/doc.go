// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing conversations, realtime event streams and
// session records. Not intended for production usage.
package testutil
