package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// Pump defaults.
const (
	DefaultWorkers       = 1
	DefaultFlushInterval = time.Second
	DefaultBatchSize     = 1000
	DefaultDrainTimeout  = 10 * time.Second
)

// Receiver accepts flushed records. *app.Engine satisfies it.
type Receiver interface {
	MultiReceive(ctx context.Context, records []domain.Record) error
}

// PumpConfig controls flushing.
type PumpConfig struct {
	// Workers is the number of concurrent flushers. More than one worker
	// does not preserve order across flushes.
	Workers int

	// FlushInterval bounds how long a record waits in the buffer.
	FlushInterval time.Duration

	// BatchSize triggers an early flush and caps records per flush.
	BatchSize int

	// DrainTimeout bounds the final flush once the source has stopped.
	DrainTimeout time.Duration
}

func (c *PumpConfig) setDefaults() {
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.BatchSize < 1 {
		c.BatchSize = DefaultBatchSize
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
}

// Pump moves lines from a Source through a Codec and a Buffer into a
// Receiver.
type Pump struct {
	config   PumpConfig
	codec    Codec
	receiver Receiver
	logger   ports.Logger
	buffer   *Buffer
}

// NewPump creates a pump.
func NewPump(config PumpConfig, codec Codec, receiver Receiver, logger ports.Logger) *Pump {
	config.setDefaults()
	return &Pump{
		config:   config,
		codec:    codec,
		receiver: receiver,
		logger:   logger,
		buffer:   NewBuffer(config.BatchSize),
	}
}

// Pending returns the number of buffered records.
func (p *Pump) Pending() int { return p.buffer.Len() }

// Run reads src until it is exhausted or ctx is cancelled, then flushes what
// is left within DrainTimeout.
func (p *Pump) Run(ctx context.Context, src Source) error {
	srcDone := make(chan struct{})
	var srcErr error
	go func() {
		defer close(srcDone)
		srcErr = src.Run(ctx, p.push)
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, srcDone)
		}()
	}
	wg.Wait()

	return srcErr
}

func (p *Pump) push(line []byte) {
	record, err := p.codec(line)
	if err != nil {
		p.logger.Warn("skipping line", ports.Err(err))
		return
	}
	p.buffer.Push(record)
}

func (p *Pump) worker(ctx context.Context, srcDone <-chan struct{}) {
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.buffer.Ready():
			p.flush(ctx)
		case <-ticker.C:
			for p.flush(ctx) {
			}
		case <-srcDone:
			p.drain(ctx)
			return
		}
	}
}

func (p *Pump) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.DrainTimeout)
	defer cancel()

	for p.flush(drainCtx) {
	}
}

// flush ships up to BatchSize pending records and reports whether any were
// taken.
func (p *Pump) flush(ctx context.Context) bool {
	records := p.buffer.Drain(p.config.BatchSize)
	if len(records) == 0 {
		return false
	}
	if err := p.receiver.MultiReceive(ctx, records); err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			p.logger.Warn("flush interrupted", ports.Int("records", len(records)), ports.Err(err))
			return ctx.Err() == nil
		}
		p.logger.Error("flush failed", ports.Int("records", len(records)), ports.Err(err))
	}
	return true
}
