// Package logship ships log records to the Datadog logs intake.
//
// This root package re-exports the embeddable API of
// github.com/bft-labs/logship/pkg/logship for callers that prefer the short
// import path.
//
// Example usage:
//
//	cfg := logship.DefaultConfig()
//	cfg.APIKey = "your-api-key"
//	s, err := logship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop()
package logship

import "github.com/bft-labs/logship/pkg/logship"

// Config holds the configuration of a Shipper.
type Config = logship.Config

// Shipper delivers log records to the intake.
type Shipper = logship.Shipper

// Option configures optional behavior of a Shipper.
type Option = logship.Option

// New creates a Shipper in the stopped state.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	return logship.New(cfg, opts...)
}

// DefaultConfig returns a Config with the intake defaults.
func DefaultConfig() Config {
	return logship.DefaultConfig()
}

// Version of the shipper.
const Version = logship.Version
