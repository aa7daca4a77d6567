package ports

import "time"

// Drop reasons reported through EventEmitter.OnDropped.
const (
	DropRetriesExhausted = "retries_exhausted"
	DropClientError      = "client_error"
	DropFatal            = "fatal"
)

// EventEmitter is notified about the outcome of every payload.
// Implementations must be safe for concurrent use.
type EventEmitter interface {
	// OnReceived is called once per inbound call with the number of records.
	OnReceived(records int)

	// OnDelivered is called when a payload was accepted by the intake. bytes
	// is the payload size before compression.
	OnDelivered(payloadID string, records, bytes, attempts int, duration time.Duration)

	// OnRetry is called before sleeping ahead of another attempt.
	OnRetry(payloadID string, attempt int, backoff time.Duration, err error)

	// OnDropped is called when a payload is given up on.
	OnDropped(payloadID string, records int, reason string, err error)
}

// NopEmitter implements EventEmitter by ignoring every event.
type NopEmitter struct{}

func (NopEmitter) OnReceived(int)                                  {}
func (NopEmitter) OnDelivered(string, int, int, int, time.Duration) {}
func (NopEmitter) OnRetry(string, int, time.Duration, error)        {}
func (NopEmitter) OnDropped(string, int, string, error)             {}
