package logship

import "github.com/bft-labs/logship/internal/domain"

// Errors returned by the Shipper. Compare with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrCancelled       = domain.ErrCancelled
	ErrClosed          = domain.ErrClosed
)
