package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Intake defaults.
const (
	DefaultHTTPHost = "http-intake.logs.datadoghq.com"
	DefaultTCPHost  = "intake.logs.datadoghq.com"

	DefaultHTTPSPort  = 443
	DefaultHTTPPort   = 80
	DefaultTCPSSLPort = 10516
	DefaultTCPPort    = 10514

	// StdinInput selects standard input as the record source.
	StdinInput = "-"
)

// Config holds CLI configuration for logship.
type Config struct {
	APIKey string

	Host           string
	Port           int
	UseSSL         bool
	SSLVerify      bool
	UseHTTP        bool
	UseCompression bool
	ForceV1Routes  bool
	HTTPProxy      string
	HTTPTimeout    time.Duration

	CompressionLevel int
	MaxRetries       int
	MaxBackoff       time.Duration
	MaxBatchCount    int
	MaxBatchBytes    int

	Input         string
	Follow        bool
	Codec         string
	Hostname      string
	Service       string
	Source        string
	Tags          string
	Workers       int
	FlushInterval time.Duration

	MetricsAddr string
	LogLevel    string
}

// DefaultConfig returns a Config with default values. Host and Port are
// derived from the transport in Validate.
func DefaultConfig() Config {
	return Config{
		APIKey:           os.Getenv("DD_API_KEY"),
		UseSSL:           true,
		SSLVerify:        true,
		UseHTTP:          true,
		UseCompression:   true,
		HTTPTimeout:      30 * time.Second,
		CompressionLevel: 6,
		MaxRetries:       5,
		MaxBackoff:       30 * time.Second,
		MaxBatchCount:    1000,
		MaxBatchBytes:    5_000_000,
		Input:            StdinInput,
		Codec:            "json",
		Workers:          1,
		FlushInterval:    time.Second,
		LogLevel:         "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api-key is required")
	}

	if c.Host == "" {
		c.Host = DefaultTCPHost
		if c.UseHTTP {
			c.Host = DefaultHTTPHost
		}
	}
	if c.Port == 0 {
		c.Port = defaultPort(c.UseHTTP, c.UseSSL)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression level must be between 0 and 9, got %d", c.CompressionLevel)
	}
	if c.MaxBatchCount <= 0 {
		return fmt.Errorf("max batch count must be positive")
	}
	if c.MaxBatchBytes <= 0 {
		return fmt.Errorf("max batch bytes must be positive")
	}
	if c.MaxBackoff <= 0 {
		return fmt.Errorf("max backoff must be positive")
	}

	if c.Input == "" {
		c.Input = StdinInput
	}
	if c.Follow && c.Input == StdinInput {
		return fmt.Errorf("follow requires a file input")
	}
	switch c.Codec {
	case "plain":
	case "", "json":
		c.Codec = "json"
		if c.Hostname == "" {
			c.Hostname, _ = os.Hostname()
		}
	default:
		return fmt.Errorf("unknown codec %q (want plain or json)", c.Codec)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}

	return nil
}

func defaultPort(useHTTP, useSSL bool) int {
	switch {
	case useHTTP && useSSL:
		return DefaultHTTPSPort
	case useHTTP:
		return DefaultHTTPPort
	case useSSL:
		return DefaultTCPSSLPort
	default:
		return DefaultTCPPort
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer if not nil and flag not changed.
// Used where zero or negative values are meaningful.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Non-positive values are ignored unless signed is set.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, signed bool, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 && !signed {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
