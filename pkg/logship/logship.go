package logship

import (
	"context"
	"fmt"
	"sync"

	httpAdapter "github.com/bft-labs/logship/internal/adapters/http"
	"github.com/bft-labs/logship/internal/adapters/tcp"
	"github.com/bft-labs/logship/internal/app"
	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
	"github.com/bft-labs/logship/internal/source"
)

// Shipper delivers log records to the intake. Use New() to create an
// instance, then Start() to begin shipping.
type Shipper struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	transport ports.Transport
	codec     source.Codec
	logger    ports.Logger
	emitter   *eventEmitterWrapper

	mu     sync.RWMutex
	engine *app.Engine
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Shipper with the given configuration.
// The instance is created in StateStopped; call Start() to begin shipping.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	emitter := &eventEmitterWrapper{handler: o.eventHandler, metrics: o.metrics}

	transport := o.transport
	if transport == nil {
		var err error
		transport, err = newTransport(cfg, o.httpClient, logger)
		if err != nil {
			return nil, err
		}
	}

	codec, err := source.NewCodec(cfg.Codec, source.Fields{
		Host:    cfg.Hostname,
		Service: cfg.Service,
		Source:  cfg.DDSource,
		Tags:    cfg.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Shipper{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, emitter),
		transport: transport,
		codec:     codec,
		logger:    logger,
		emitter:   emitter,
	}, nil
}

func newTransport(cfg Config, client ports.HTTPClient, logger ports.Logger) (ports.Transport, error) {
	if !cfg.UseHTTP {
		return tcp.NewTransport(tcp.Config{
			Host:         cfg.Host,
			Port:         cfg.Port,
			UseSSL:       cfg.UseSSL,
			SSLVerify:    cfg.SSLVerify,
			DialTimeout:  cfg.DialTimeout,
			WriteTimeout: cfg.HTTPTimeout,
		}, logger), nil
	}
	t, err := httpAdapter.NewTransport(httpAdapter.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		UseSSL:         cfg.UseSSL,
		SSLVerify:      cfg.SSLVerify,
		ForceV1Routes:  cfg.ForceV1Routes,
		APIKey:         cfg.APIKey,
		UseCompression: cfg.UseCompression,
		Proxy:          cfg.HTTPProxy,
		Timeout:        cfg.HTTPTimeout,
		Origin:         Origin,
		OriginVersion:  Version,
	}, client, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

func (s *Shipper) engineConfig() app.EngineConfig {
	return app.EngineConfig{
		APIKey:           s.config.APIKey,
		UseHTTP:          s.config.UseHTTP,
		UseCompression:   s.config.UseCompression,
		CompressionLevel: s.config.CompressionLevel,
		MaxBatchCount:    s.config.MaxBatchCount,
		MaxBatchBytes:    s.config.MaxBatchBytes,
		Retry: app.RetryConfig{
			MaxRetries: s.config.MaxRetries,
			MaxBackoff: s.config.MaxBackoff,
		},
	}
}

// Start begins shipping. With a source attached, reading happens in the
// background; Done is closed when the source is exhausted or the Shipper
// stops. Returns ErrAlreadyRunning if already running.
func (s *Shipper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	engine := app.NewEngine(s.engineConfig(), s.transport, s.logger, s.emitter)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.engine = engine
	s.cancel = cancel
	s.done = done

	if err := s.lifecycle.TransitionTo(app.StateRunning, "engine ready"); err != nil {
		cancel()
		return err
	}

	s.lifecycle.Go(func() {
		defer close(done)
		if s.opts.source == nil {
			<-runCtx.Done()
			return
		}
		s.runSource(runCtx, engine)
	})

	return nil
}

// runSource pumps the attached source into engine and settles the lifecycle
// once the source ends on its own.
func (s *Shipper) runSource(ctx context.Context, engine *app.Engine) {
	pump := source.NewPump(source.PumpConfig{
		Workers:       s.config.Workers,
		FlushInterval: s.config.FlushInterval,
		BatchSize:     s.config.MaxBatchCount,
	}, s.codec, engine, s.logger)

	err := pump.Run(ctx, s.opts.source)
	if ctx.Err() != nil {
		// Stop() owns the remaining transitions.
		return
	}

	if err != nil {
		s.logger.Error("source failed", ports.Err(err))
		if terr := s.lifecycle.TransitionTo(app.StateCrashed, err.Error()); terr == nil {
			s.closeEngine(engine)
		}
		return
	}

	if terr := s.lifecycle.TransitionTo(app.StateStopping, "source exhausted"); terr != nil {
		return
	}
	s.closeEngine(engine)
	_ = s.lifecycle.TransitionTo(app.StateStopped, "source exhausted")
}

func (s *Shipper) closeEngine(engine *app.Engine) {
	if err := engine.Close(); err != nil {
		s.logger.Warn("closing transport", ports.Err(err))
	}
}

// Ship delivers records synchronously through the running engine. Failed
// payloads are reported through events; only cancellation is returned.
func (s *Shipper) Ship(ctx context.Context, records ...[]byte) error {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	if engine == nil || s.lifecycle.State() != app.StateRunning {
		return ErrNotRunning
	}

	recs := make([]domain.Record, len(records))
	for i, r := range records {
		recs[i] = domain.Record(r)
	}
	return engine.MultiReceive(ctx, recs)
}

// Stop stops reading, flushes pending records and closes the transport.
// Waits up to 30 seconds before giving up.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (s *Shipper) Stop() error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.cancel != nil {
		s.cancel()
	}
	engine := s.engine
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	s.closeEngine(engine)

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Shipper) Status() State {
	return convertState(s.lifecycle.State())
}

// Done is closed when the current run ends. It is nil before the first
// Start.
func (s *Shipper) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}
