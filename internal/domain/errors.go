package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the logship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("logship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("logship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("logship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("logship: invalid configuration")

	// ErrCancelled is returned when shipping is interrupted by a shutdown
	// request. It is never retried and never swallowed.
	ErrCancelled = errors.New("logship: shipping cancelled")

	// ErrClosed is returned when records are handed to a closed engine.
	ErrClosed = errors.New("logship: engine closed")
)

// RetryableError marks a transient transport failure. The retry engine
// backs off and sends the same payload again when it sees one.
type RetryableError struct {
	Err error
}

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether any error in err's chain is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RejectedError marks a payload the intake refused as malformed. It is
// consumed without a retry.
type RejectedError struct {
	Err error
}

// Rejected wraps err as a RejectedError. A nil err stays nil.
func Rejected(err error) error {
	if err == nil {
		return nil
	}
	return &RejectedError{Err: err}
}

func (e *RejectedError) Error() string {
	return "rejected: " + e.Err.Error()
}

func (e *RejectedError) Unwrap() error { return e.Err }

// IsRejected reports whether any error in err's chain is a RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// Cancelled wraps cause (usually ctx.Err()) so that errors.Is matches both
// ErrCancelled and the cause.
func Cancelled(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
