package logship

import (
	"io"

	"github.com/bft-labs/logship/internal/adapters/metrics"
	"github.com/bft-labs/logship/internal/ports"
	"github.com/bft-labs/logship/internal/source"
	"github.com/bft-labs/logship/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = log.Logger

// Transport delivers one wire payload. Errors wrapped with
// domain retryable classification are retried; others are fatal.
type Transport = ports.Transport

// Source produces raw lines for a running Shipper.
type Source = source.Source

// Metrics counts deliveries, retries and drops and serves them in the
// Prometheus text format.
type Metrics = metrics.Collector

// NewMetrics returns an empty Metrics.
func NewMetrics() *Metrics { return metrics.NewCollector() }

// StreamSource reads lines from r until EOF.
func StreamSource(r io.Reader) Source { return source.NewStreamSource(r) }

// FileSource reads lines from path. With follow set it keeps reading
// appended lines and survives truncation and rotation.
func FileSource(path string, follow bool, logger Logger) Source {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return source.NewFileSource(path, follow, logger)
}

// Option configures optional behavior of a Shipper.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	source       Source
	transport    Transport
	metrics      *Metrics
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithHTTPClient sets the client used by the HTTP transport.
// If not provided, a pooled client honoring the proxy, TLS and timeout
// settings is built.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for shipping events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithSource attaches a line source that a started Shipper reads from.
// Without a source, records are only shipped through Ship.
func WithSource(src Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithTransport replaces the HTTP or TCP transport selected by the config.
// The Shipper closes it on Stop.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithMetrics records shipping counters into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
