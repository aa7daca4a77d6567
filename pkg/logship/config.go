package logship

import (
	"fmt"
	"time"

	"github.com/bft-labs/logship/internal/app"
	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/source"
)

// Intake defaults.
const (
	DefaultHTTPHost = "http-intake.logs.datadoghq.com"
	DefaultTCPHost  = "intake.logs.datadoghq.com"
	DefaultHTTPPort = 443
	DefaultTCPPort  = 10516

	defaultPlainHTTPPort = 80
	defaultPlainTCPPort  = 10514
)

// Config holds the configuration of a Shipper.
// Start from DefaultConfig(); zero numeric fields are filled by SetDefaults.
type Config struct {
	// APIKey authenticates against the intake. Required.
	APIKey string

	// Host and Port of the intake. Derived from UseHTTP when empty.
	Host string
	Port int

	UseSSL    bool
	SSLVerify bool

	// UseHTTP selects batched HTTP delivery; otherwise records are written
	// as lines over a persistent TCP connection.
	UseHTTP bool

	UseCompression   bool
	CompressionLevel int

	// ForceV1Routes uses the legacy /v1/input/{api_key} HTTP route.
	ForceV1Routes bool

	HTTPProxy string

	// HTTPTimeout bounds one HTTP request or one TCP write.
	HTTPTimeout time.Duration
	DialTimeout time.Duration

	// MaxRetries bounds retries of one payload. Negative means unlimited.
	MaxRetries int
	MaxBackoff time.Duration

	MaxBatchCount int
	MaxBatchBytes int

	// Codec encodes lines read from a source: "json" (default) wraps each
	// line in a message object, "plain" ships lines verbatim.
	Codec    string
	Hostname string
	Service  string
	DDSource string
	Tags     string

	Workers       int
	FlushInterval time.Duration
}

// DefaultConfig returns a Config with the intake defaults. Only APIKey must
// be set.
func DefaultConfig() Config {
	return Config{
		UseSSL:           true,
		SSLVerify:        true,
		UseHTTP:          true,
		UseCompression:   true,
		CompressionLevel: 6,
		HTTPTimeout:      30 * time.Second,
		DialTimeout:      10 * time.Second,
		MaxRetries:       app.DefaultMaxRetries,
		MaxBackoff:       app.DefaultMaxBackoff,
		MaxBatchCount:    app.DefaultMaxBatchCount,
		MaxBatchBytes:    app.DefaultMaxBatchBytes,
		Codec:            source.CodecJSON,
		Workers:          source.DefaultWorkers,
		FlushInterval:    source.DefaultFlushInterval,
	}
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = DefaultTCPHost
		if c.UseHTTP {
			c.Host = DefaultHTTPHost
		}
	}
	if c.Port == 0 {
		switch {
		case c.UseHTTP && c.UseSSL:
			c.Port = DefaultHTTPPort
		case c.UseHTTP:
			c.Port = defaultPlainHTTPPort
		case c.UseSSL:
			c.Port = DefaultTCPPort
		default:
			c.Port = defaultPlainTCPPort
		}
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = app.DefaultMaxBackoff
	}
	if c.MaxBatchCount == 0 {
		c.MaxBatchCount = app.DefaultMaxBatchCount
	}
	if c.MaxBatchBytes == 0 {
		c.MaxBatchBytes = app.DefaultMaxBatchBytes
	}
	if c.Codec == "" {
		c.Codec = source.CodecJSON
	}
	if c.Workers == 0 {
		c.Workers = source.DefaultWorkers
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = source.DefaultFlushInterval
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.APIKey == "":
		return invalid("api key is required")
	case c.Port <= 0 || c.Port > 65535:
		return invalid("port %d out of range", c.Port)
	case c.CompressionLevel < 0 || c.CompressionLevel > 9:
		return invalid("compression level %d not in 0..9", c.CompressionLevel)
	case c.MaxBackoff <= 0:
		return invalid("max backoff must be positive")
	case c.MaxBatchCount <= 0:
		return invalid("max batch count must be positive")
	case c.MaxBatchBytes <= 0:
		return invalid("max batch bytes must be positive")
	case c.Workers <= 0:
		return invalid("workers must be positive")
	case c.FlushInterval <= 0:
		return invalid("flush interval must be positive")
	}
	if _, err := source.NewCodec(c.Codec, source.Fields{}); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
