// Package logging provides a minimal logging interface and adapters for parlance.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that sessions, extractors and the HTTP server use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - StructuredLogger with component / session scoping and upstream call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	lc := session.New(reg, provisioner, extractor, func(o *session.Options) { o.Logger = logger })
//
// Arguments after the message are slog-style key/value pairs.
package logging
