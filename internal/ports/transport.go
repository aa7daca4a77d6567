package ports

import "context"

// Transport delivers wire payloads to the log intake.
type Transport interface {
	// Send delivers one payload. Transient failures are returned wrapped in
	// *domain.RetryableError. A payload the intake refused is reported as
	// *domain.RejectedError and dropped. Any other error is fatal for the
	// payload.
	Send(ctx context.Context, payload []byte) error

	// Close releases the underlying connection. It is idempotent and safe to
	// call without a prior Send.
	Close() error
}
