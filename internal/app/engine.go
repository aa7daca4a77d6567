package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// EngineConfig contains the shipping parameters of an Engine.
type EngineConfig struct {
	// APIKey prefixes every TCP line.
	APIKey string

	// UseHTTP selects batched HTTP framing; otherwise one TCP line per record.
	UseHTTP bool

	// UseCompression gzips HTTP payloads at CompressionLevel.
	UseCompression   bool
	CompressionLevel int

	// MaxBatchCount and MaxBatchBytes bound one HTTP payload. MaxBatchBytes
	// also bounds one TCP line.
	MaxBatchCount int
	MaxBatchBytes int

	Retry RetryConfig
}

// Engine turns inbound records into payloads and delivers them in order.
// It is safe for concurrent use; ordering is only guaranteed per caller.
type Engine struct {
	config    EngineConfig
	transport ports.Transport
	retry     *RetryEngine
	logger    ports.Logger
	emitter   ports.EventEmitter

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewEngine creates an engine delivering through transport. The engine owns
// the transport from here on and closes it in Close.
func NewEngine(config EngineConfig, transport ports.Transport, logger ports.Logger, emitter ports.EventEmitter) *Engine {
	if config.MaxBatchCount <= 0 {
		config.MaxBatchCount = DefaultMaxBatchCount
	}
	if config.MaxBatchBytes <= 0 {
		config.MaxBatchBytes = DefaultMaxBatchBytes
	}
	if emitter == nil {
		emitter = ports.NopEmitter{}
	}
	return &Engine{
		config:    config,
		transport: transport,
		retry:     NewRetryEngine(transport, config.Retry, logger, emitter),
		logger:    logger,
		emitter:   emitter,
	}
}

// MultiReceive ships records in order. Failures of individual payloads are
// logged and do not stop the remaining ones; only cancellation is returned.
func (e *Engine) MultiReceive(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if e.closed.Load() {
		return domain.ErrClosed
	}
	e.emitter.OnReceived(len(records))

	if e.config.UseHTTP {
		for _, b := range BatchRecords(records, e.config.MaxBatchCount, e.config.MaxBatchBytes) {
			p, err := e.httpPayload(b)
			if err := e.deliver(ctx, p, err); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range records {
		line := FrameTCP(r, e.config.APIKey, e.config.MaxBatchBytes)
		p := domain.Payload{ID: newPayloadID(), Data: line, Records: 1, RawBytes: len(line)}
		if err := e.deliver(ctx, p, nil); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the transport. Only the first call has an effect.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.closeErr = e.transport.Close()
	})
	return e.closeErr
}

// httpPayload frames and optionally compresses one batch.
func (e *Engine) httpPayload(b *domain.Batch) (domain.Payload, error) {
	body := FrameHTTP(b)
	p := domain.Payload{ID: newPayloadID(), Data: body, Records: b.Size(), RawBytes: len(body)}
	if !e.config.UseCompression {
		return p, nil
	}

	compressed, err := Compress(body, e.config.CompressionLevel)
	if err != nil {
		return p, err
	}
	p.Data = compressed
	return p, nil
}

// deliver hands one payload to the retry engine and absorbs every error
// except cancellation. A non-nil buildErr drops the payload without sending.
func (e *Engine) deliver(ctx context.Context, p domain.Payload, buildErr error) error {
	err := buildErr
	if err == nil {
		err = e.retry.Send(ctx, p)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrCancelled) {
		return err
	}

	e.logger.Error("uncaught processing error, dropping payload",
		ports.PayloadID(p.ID),
		ports.Records(p.Records),
		ports.Err(err),
	)
	e.emitter.OnDropped(p.ID, p.Records, ports.DropFatal, err)
	return nil
}

// newPayloadID returns a time-ordered identifier for log correlation.
func newPayloadID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
