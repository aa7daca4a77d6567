// Package log provides the logging abstraction used by logship components.
//
// The shipping engine only emits structured warn and error events; where they
// end up is decided by whoever constructs the engine. A zerolog adapter and a
// no-op logger are provided.
//
// # Usage
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	logger.Warn("retrying send", log.Err(err), log.Duration("backoff", d))
//
// Or, in tests:
//
//	logger := log.NewNoopLogger()
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with your existing
// logging infrastructure.
package log
