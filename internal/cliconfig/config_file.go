package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations to make TOML and
// YAML friendly. Pointers distinguish unset from zero.
type FileConfig struct {
	APIKey           string `toml:"api_key" yaml:"api_key"`
	Host             string `toml:"host" yaml:"host"`
	Port             int    `toml:"port" yaml:"port"`
	UseSSL           *bool  `toml:"use_ssl" yaml:"use_ssl"`
	SSLVerify        *bool  `toml:"ssl_verify" yaml:"ssl_verify"`
	UseHTTP          *bool  `toml:"use_http" yaml:"use_http"`
	UseCompression   *bool  `toml:"use_compression" yaml:"use_compression"`
	CompressionLevel *int   `toml:"compression_level" yaml:"compression_level"`
	ForceV1Routes    *bool  `toml:"force_v1_routes" yaml:"force_v1_routes"`
	HTTPProxy        string `toml:"http_proxy" yaml:"http_proxy"`
	HTTPTimeout      string `toml:"http_timeout" yaml:"http_timeout"`
	MaxRetries       *int   `toml:"max_retries" yaml:"max_retries"`
	MaxBackoff       string `toml:"max_backoff" yaml:"max_backoff"`
	MaxBatchCount    int    `toml:"max_batch_count" yaml:"max_batch_count"`
	MaxBatchBytes    int    `toml:"max_batch_bytes" yaml:"max_batch_bytes"`
	Input            string `toml:"input" yaml:"input"`
	Follow           *bool  `toml:"follow" yaml:"follow"`
	Codec            string `toml:"codec" yaml:"codec"`
	Hostname         string `toml:"hostname" yaml:"hostname"`
	Service          string `toml:"service" yaml:"service"`
	Source           string `toml:"source" yaml:"source"`
	Tags             string `toml:"tags" yaml:"tags"`
	Workers          int    `toml:"workers" yaml:"workers"`
	FlushInterval    string `toml:"flush_interval" yaml:"flush_interval"`
	MetricsAddr      string `toml:"metrics_addr" yaml:"metrics_addr"`
	LogLevel         string `toml:"log_level" yaml:"log_level"`
}

// LoadFileConfig reads and parses a config file from the given path. Files
// ending in .yaml or .yml are decoded as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.logship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".logship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("api-key", fc.APIKey, &cfg.APIKey)
	s.setString("host", fc.Host, &cfg.Host)
	s.setString("http-proxy", fc.HTTPProxy, &cfg.HTTPProxy)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("codec", fc.Codec, &cfg.Codec)
	s.setString("hostname", fc.Hostname, &cfg.Hostname)
	s.setString("service", fc.Service, &cfg.Service)
	s.setString("source", fc.Source, &cfg.Source)
	s.setString("tags", fc.Tags, &cfg.Tags)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("max-backoff", fc.MaxBackoff, &cfg.MaxBackoff); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}

	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("max-batch-count", fc.MaxBatchCount, &cfg.MaxBatchCount)
	s.setInt("max-batch-bytes", fc.MaxBatchBytes, &cfg.MaxBatchBytes)
	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setIntPtr("compression-level", fc.CompressionLevel, &cfg.CompressionLevel)
	s.setIntPtr("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	s.setBool("use-ssl", fc.UseSSL, &cfg.UseSSL)
	s.setBool("ssl-verify", fc.SSLVerify, &cfg.SSLVerify)
	s.setBool("use-http", fc.UseHTTP, &cfg.UseHTTP)
	s.setBool("compress", fc.UseCompression, &cfg.UseCompression)
	s.setBool("force-v1-routes", fc.ForceV1Routes, &cfg.ForceV1Routes)
	s.setBool("follow", fc.Follow, &cfg.Follow)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
