package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/logship/internal/cliconfig"
	logAdapter "github.com/bft-labs/logship/pkg/log"
	"github.com/bft-labs/logship/pkg/logship"
)

const helpDescription = `
Ship log lines from stdin or a file to the Datadog logs intake.

Highlights:
  - Batched HTTP delivery with gzip compression, or API-key prefixed lines over TCP.
  - Exponential backoff on intake and network failures; bad payloads never block the stream.
  - Follows files across truncation and rotation.
  - Configure via file, env, or flags; counters exposed in Prometheus text format.
`

var exampleUsage = strings.TrimSpace(`
  tail -F /var/log/app.log | logship --api-key <api-key>
  logship --input /var/log/app.log --follow --codec json --service api
  logship --config $HOME/.logship/config.toml --use-http=false
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return logship.Version
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "logship",
		Short:         "Ship log lines to the Datadog logs intake",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment (LOGSHIP_*) overrides the file, flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := cliconfig.Logger(cfg.LogLevel)
			if err != nil {
				return err
			}

			logCfg := cfg
			if logCfg.APIKey != "" {
				logCfg.APIKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			return run(cfg, log)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file, .toml or .yaml (default: $HOME/.logship/config.toml)")
	f.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "intake API key (default: $DD_API_KEY)")

	f.StringVar(&cfg.Host, "host", cfg.Host, "intake host (default depends on --use-http)")
	f.IntVar(&cfg.Port, "port", cfg.Port, "intake port (default depends on --use-http and --use-ssl)")
	f.BoolVar(&cfg.UseSSL, "use-ssl", cfg.UseSSL, "use TLS")
	f.BoolVar(&cfg.SSLVerify, "ssl-verify", cfg.SSLVerify, "verify the intake certificate")
	f.BoolVar(&cfg.UseHTTP, "use-http", cfg.UseHTTP, "batch over HTTP instead of streaming over TCP")
	f.BoolVar(&cfg.UseCompression, "compress", cfg.UseCompression, "gzip HTTP payloads")
	f.IntVar(&cfg.CompressionLevel, "compression-level", cfg.CompressionLevel, "gzip level 0-9")
	f.BoolVar(&cfg.ForceV1Routes, "force-v1-routes", cfg.ForceV1Routes, "use the legacy /v1/input route")
	f.StringVar(&cfg.HTTPProxy, "http-proxy", cfg.HTTPProxy, "proxy URL for HTTP delivery")
	f.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP request and TCP write timeout")

	f.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "retries per payload, negative for unlimited")
	f.DurationVar(&cfg.MaxBackoff, "max-backoff", cfg.MaxBackoff, "upper bound of the retry backoff")
	f.IntVar(&cfg.MaxBatchCount, "max-batch-count", cfg.MaxBatchCount, "maximum records per HTTP payload")
	f.IntVar(&cfg.MaxBatchBytes, "max-batch-bytes", cfg.MaxBatchBytes, "maximum record bytes per HTTP payload or TCP line")

	f.StringVar(&cfg.Input, "input", cfg.Input, "file to read, - for stdin")
	f.BoolVar(&cfg.Follow, "follow", cfg.Follow, "keep reading the input file as it grows")
	f.StringVar(&cfg.Codec, "codec", cfg.Codec, "record encoding: json wraps each line in a message object, plain ships it verbatim")
	f.StringVar(&cfg.Hostname, "hostname", cfg.Hostname, "host attribute for the json codec (default: os hostname)")
	f.StringVar(&cfg.Service, "service", cfg.Service, "service attribute for the json codec")
	f.StringVar(&cfg.Source, "source", cfg.Source, "ddsource attribute for the json codec")
	f.StringVar(&cfg.Tags, "tags", cfg.Tags, "ddtags attribute for the json codec, comma separated")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent flushers; more than one does not preserve order")
	f.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "maximum time a line waits before shipping")

	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus counters on this address (e.g. :9090)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "logship: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg cliconfig.Config, log zerolog.Logger) error {
	logger := logAdapter.NewZerologAdapterWithLogger(log)
	metrics := logship.NewMetrics()

	var src logship.Source
	if cfg.Input == cliconfig.StdinInput {
		src = logship.StreamSource(os.Stdin)
	} else {
		src = logship.FileSource(cfg.Input, cfg.Follow, logger)
	}

	s, err := logship.New(toLibraryConfig(cfg),
		logship.WithLogger(logger),
		logship.WithMetrics(metrics),
		logship.WithSource(src),
	)
	if err != nil {
		return fmt.Errorf("create shipper: %w", err)
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := s.Start(context.Background()); err != nil {
		return fmt.Errorf("start shipper: %w", err)
	}

	select {
	case <-sigCh:
		log.Info().Msg("received signal, stopping...")
		if err := s.Stop(); err != nil {
			return fmt.Errorf("stop shipper: %w", err)
		}
	case <-s.Done():
	}

	if s.Status() == logship.StateCrashed {
		return errors.New("shipper crashed")
	}
	return nil
}

func metricsMux(m *logship.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func toLibraryConfig(cfg cliconfig.Config) logship.Config {
	return logship.Config{
		APIKey:           cfg.APIKey,
		Host:             cfg.Host,
		Port:             cfg.Port,
		UseSSL:           cfg.UseSSL,
		SSLVerify:        cfg.SSLVerify,
		UseHTTP:          cfg.UseHTTP,
		UseCompression:   cfg.UseCompression,
		CompressionLevel: cfg.CompressionLevel,
		ForceV1Routes:    cfg.ForceV1Routes,
		HTTPProxy:        cfg.HTTPProxy,
		HTTPTimeout:      cfg.HTTPTimeout,
		DialTimeout:      10 * time.Second,
		MaxRetries:       cfg.MaxRetries,
		MaxBackoff:       cfg.MaxBackoff,
		MaxBatchCount:    cfg.MaxBatchCount,
		MaxBatchBytes:    cfg.MaxBatchBytes,
		Codec:            cfg.Codec,
		Hostname:         cfg.Hostname,
		Service:          cfg.Service,
		DDSource:         cfg.Source,
		Tags:             cfg.Tags,
		Workers:          cfg.Workers,
		FlushInterval:    cfg.FlushInterval,
	}
}
