package logship

import (
	"time"

	"github.com/bft-labs/logship/internal/app"
	"github.com/bft-labs/logship/internal/ports"
)

// Drop reasons carried by DroppedEvent.
const (
	DropRetriesExhausted = ports.DropRetriesExhausted
	DropClientError      = ports.DropClientError
	DropFatal            = ports.DropFatal
)

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// DeliveredEvent describes a payload accepted by the intake.
type DeliveredEvent struct {
	PayloadID string
	Records   int
	// Bytes is the payload size before compression.
	Bytes     int
	Attempts  int
	Duration  time.Duration
}

// RetryEvent describes a failed attempt that will be retried after Backoff.
type RetryEvent struct {
	PayloadID string
	Attempt   int
	Backoff   time.Duration
	Error     error
}

// DroppedEvent describes a payload that was given up on.
type DroppedEvent struct {
	PayloadID string
	Records   int
	Reason    string
	Error     error
}

// EventHandler receives notifications about shipping.
// Methods are called synchronously from shipping goroutines and must return
// quickly. Embed BaseEventHandler to implement only some of them.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnDelivered(DeliveredEvent)
	OnRetry(RetryEvent)
	OnDropped(DroppedEvent)
}

// BaseEventHandler implements EventHandler with no-ops.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnDelivered(DeliveredEvent)     {}
func (BaseEventHandler) OnRetry(RetryEvent)             {}
func (BaseEventHandler) OnDropped(DroppedEvent)         {}

// eventEmitterWrapper adapts EventHandler and Metrics to the internal
// emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
	metrics *Metrics
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnReceived(records int) {
	if e.metrics != nil {
		e.metrics.OnReceived(records)
	}
}

func (e *eventEmitterWrapper) OnDelivered(payloadID string, records, bytes, attempts int, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.OnDelivered(payloadID, records, bytes, attempts, duration)
	}
	if e.handler != nil {
		e.handler.OnDelivered(DeliveredEvent{
			PayloadID: payloadID,
			Records:   records,
			Bytes:     bytes,
			Attempts:  attempts,
			Duration:  duration,
		})
	}
}

func (e *eventEmitterWrapper) OnRetry(payloadID string, attempt int, backoff time.Duration, err error) {
	if e.metrics != nil {
		e.metrics.OnRetry(payloadID, attempt, backoff, err)
	}
	if e.handler != nil {
		e.handler.OnRetry(RetryEvent{
			PayloadID: payloadID,
			Attempt:   attempt,
			Backoff:   backoff,
			Error:     err,
		})
	}
}

func (e *eventEmitterWrapper) OnDropped(payloadID string, records int, reason string, err error) {
	if e.metrics != nil {
		e.metrics.OnDropped(payloadID, records, reason, err)
	}
	if e.handler != nil {
		e.handler.OnDropped(DroppedEvent{
			PayloadID: payloadID,
			Records:   records,
			Reason:    reason,
			Error:     err,
		})
	}
}
