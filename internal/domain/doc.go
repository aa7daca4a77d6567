// Package domain contains the core domain entities and value objects for logship.
//
// This package represents the innermost layer of the application. It has no
// dependencies on infrastructure concerns (HTTP, sockets, logging) and
// contains only the shapes the shipping engine moves around.
//
// # Entities
//
//   - [Record]: One encoded log entry produced by a codec
//   - [Batch]: An ordered group of records shipped as one HTTP payload
//   - [Payload]: The wire-ready bytes for one delivery attempt sequence
//
// # Errors
//
// Transports classify failures by wrapping them in [RetryableError]. Any
// error that is not retryable is fatal for the payload being sent.
// [RejectedError] marks a payload the intake refused; it is dropped
// without a retry. [ErrCancelled] signals that shipping was interrupted by
// shutdown.
package domain
