// Package logship provides an embeddable log shipper for the Datadog logs
// intake.
//
// Records are delivered either in batched, optionally gzip compressed HTTP
// requests or as API-key prefixed lines over a persistent TCP connection.
// Retryable failures are retried with exponential backoff; everything else is
// logged, reported through events and dropped so that one bad payload never
// blocks the rest of the stream.
//
// # Basic Usage
//
//	cfg := logship.DefaultConfig()
//	cfg.APIKey = os.Getenv("DD_API_KEY")
//
//	s, err := logship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	_ = s.Ship(ctx, []byte(`{"message":"hello"}`))
//	_ = s.Stop()
//
// # Sources
//
// Attach a [Source] with [WithSource] to have a started Shipper read lines
// by itself, from a stream ([StreamSource]) or a file ([FileSource]),
// optionally following it like tail -F. Lines are encoded by the configured
// codec and flushed every FlushInterval or once MaxBatchCount are pending.
//
// # Events and Metrics
//
// Implement [EventHandler] (embedding [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe state changes, deliveries, retries and
// drops. [WithMetrics] records the same outcomes as Prometheus counters.
//
// # Lifecycle States
//
// A Shipper is in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Shipper.Status]
// to query the current state.
package logship
