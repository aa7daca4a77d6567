package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LOGSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("api-key", os.Getenv("LOGSHIP_API_KEY"), &cfg.APIKey)
	s.setString("host", os.Getenv("LOGSHIP_HOST"), &cfg.Host)
	s.setString("http-proxy", os.Getenv("LOGSHIP_HTTP_PROXY"), &cfg.HTTPProxy)
	s.setString("input", os.Getenv("LOGSHIP_INPUT"), &cfg.Input)
	s.setString("codec", os.Getenv("LOGSHIP_CODEC"), &cfg.Codec)
	s.setString("hostname", os.Getenv("LOGSHIP_HOSTNAME"), &cfg.Hostname)
	s.setString("service", os.Getenv("LOGSHIP_SERVICE"), &cfg.Service)
	s.setString("source", os.Getenv("LOGSHIP_SOURCE"), &cfg.Source)
	s.setString("tags", os.Getenv("LOGSHIP_TAGS"), &cfg.Tags)
	s.setString("metrics-addr", os.Getenv("LOGSHIP_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("LOGSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("timeout", os.Getenv("LOGSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("max-backoff", os.Getenv("LOGSHIP_MAX_BACKOFF"), &cfg.MaxBackoff); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", os.Getenv("LOGSHIP_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("port", os.Getenv("LOGSHIP_PORT"), false, &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("max-batch-count", os.Getenv("LOGSHIP_MAX_BATCH_COUNT"), false, &cfg.MaxBatchCount); err != nil {
		return err
	}
	if err := s.setIntFromString("max-batch-bytes", os.Getenv("LOGSHIP_MAX_BATCH_BYTES"), false, &cfg.MaxBatchBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("LOGSHIP_WORKERS"), false, &cfg.Workers); err != nil {
		return err
	}
	if err := s.setIntFromString("compression-level", os.Getenv("LOGSHIP_COMPRESSION_LEVEL"), true, &cfg.CompressionLevel); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", os.Getenv("LOGSHIP_MAX_RETRIES"), true, &cfg.MaxRetries); err != nil {
		return err
	}

	s.setBoolFromString("use-ssl", os.Getenv("LOGSHIP_USE_SSL"), &cfg.UseSSL)
	s.setBoolFromString("ssl-verify", os.Getenv("LOGSHIP_SSL_VERIFY"), &cfg.SSLVerify)
	s.setBoolFromString("use-http", os.Getenv("LOGSHIP_USE_HTTP"), &cfg.UseHTTP)
	s.setBoolFromString("compress", os.Getenv("LOGSHIP_USE_COMPRESSION"), &cfg.UseCompression)
	s.setBoolFromString("force-v1-routes", os.Getenv("LOGSHIP_FORCE_V1_ROUTES"), &cfg.ForceV1Routes)
	s.setBoolFromString("follow", os.Getenv("LOGSHIP_FOLLOW"), &cfg.Follow)

	return nil
}
