package app

import (
	"context"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// Default retry policy.
const (
	DefaultMaxRetries = 5
	DefaultMaxBackoff = 30 * time.Second
)

// RetryConfig bounds the retry loop around a single payload.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// A negative value retries forever.
	MaxRetries int

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// Tick is the backoff sleep granularity. Zero means BackoffTick.
	Tick time.Duration
}

// RetryEngine delivers payloads through a Transport, backing off and retrying
// on retryable failures.
type RetryEngine struct {
	transport ports.Transport
	config    RetryConfig
	logger    ports.Logger
	emitter   ports.EventEmitter
}

// NewRetryEngine creates a retry engine around transport.
func NewRetryEngine(transport ports.Transport, config RetryConfig, logger ports.Logger, emitter ports.EventEmitter) *RetryEngine {
	if emitter == nil {
		emitter = ports.NopEmitter{}
	}
	return &RetryEngine{
		transport: transport,
		config:    config,
		logger:    logger,
		emitter:   emitter,
	}
}

// Send delivers p, retrying retryable failures until the budget is spent.
//
// It returns nil when the payload was delivered, rejected by the intake, or
// abandoned after the last retry. Non-retryable errors and domain.ErrCancelled are returned as-is
// without a further attempt.
func (r *RetryEngine) Send(ctx context.Context, p domain.Payload) error {
	bo := newBackoff(r.config.Tick, r.config.MaxBackoff)
	start := time.Now()

	for retries := 0; ; retries++ {
		if err := ctx.Err(); err != nil {
			return domain.Cancelled(err)
		}

		err := r.transport.Send(ctx, p.Data)
		if err == nil {
			r.emitter.OnDelivered(p.ID, p.Records, p.RawBytes, retries+1, time.Since(start))
			return nil
		}

		if domain.IsRejected(err) {
			r.emitter.OnDropped(p.ID, p.Records, ports.DropClientError, err)
			return nil
		}

		if !domain.IsRetryable(err) {
			return err
		}

		if r.config.MaxRetries >= 0 && retries >= r.config.MaxRetries {
			r.logger.Error("dropping payload after exhausting retries",
				ports.PayloadID(p.ID),
				ports.Records(p.Records),
				ports.Int("attempts", retries+1),
				ports.Err(err),
			)
			r.emitter.OnDropped(p.ID, p.Records, ports.DropRetriesExhausted, err)
			return nil
		}

		r.logger.Warn("retrying send",
			ports.PayloadID(p.ID),
			ports.Attempt(retries+1),
			ports.Duration("backoff", bo.Current()),
			ports.Err(err),
		)
		r.emitter.OnRetry(p.ID, retries+1, bo.Current(), err)

		if err := bo.Sleep(ctx); err != nil {
			return err
		}
	}
}
