// Package http implements the batched HTTP transport to the log intake.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

const (
	logsEndpoint       = "/api/v2/logs"
	legacyLogsEndpoint = "/v1/input/"

	// maxErrorBody bounds how much of a rejected response is kept for logs.
	maxErrorBody = 4 << 10
)

// Config describes the HTTP intake endpoint.
type Config struct {
	Host string
	Port int

	// UseSSL selects https; SSLVerify enables certificate verification.
	UseSSL    bool
	SSLVerify bool

	// ForceV1Routes sends to the legacy /v1/input/{api_key} route instead of
	// /api/v2/logs with header authentication.
	ForceV1Routes bool

	APIKey string

	// UseCompression marks bodies as gzip encoded.
	UseCompression bool

	// Proxy is an optional proxy URL.
	Proxy string

	// Timeout bounds one request. Zero means no timeout.
	Timeout time.Duration

	// Origin and OriginVersion identify the shipper to the intake.
	Origin        string
	OriginVersion string
}

// Endpoint returns the URL payloads are posted to.
func (c Config) Endpoint() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   logsEndpoint,
	}
	if c.ForceV1Routes {
		u.Path = legacyLogsEndpoint + c.APIKey
		u.RawPath = legacyLogsEndpoint + url.PathEscape(c.APIKey)
	}
	return u.String()
}

// StatusError is a non-2xx answer from the intake.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// Transport implements ports.Transport with one POST per payload.
type Transport struct {
	config   Config
	endpoint string
	client   ports.HTTPClient
	logger   ports.Logger
}

// NewHTTPClient builds the pooled client used when none is injected.
func NewHTTPClient(cfg Config) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !cfg.SSLVerify, //nolint:gosec // user-configured
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", cfg.Proxy, err)
		}
		base.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Transport: base, Timeout: cfg.Timeout}, nil
}

// NewTransport creates an HTTP transport. When client is nil a pooled
// client is built from cfg with NewHTTPClient.
func NewTransport(cfg Config, client ports.HTTPClient, logger ports.Logger) (*Transport, error) {
	if client == nil {
		c, err := NewHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return &Transport{
		config:   cfg,
		endpoint: cfg.Endpoint(),
		client:   client,
		logger:   logger,
	}, nil
}

// Send posts payload to the intake.
//
// 5xx and 429 answers and network failures are retryable. Other 4xx answers
// are logged and reported as delivered since resending the same body cannot
// succeed.
func (t *Transport) Send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if t.config.UseCompression {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if !t.config.ForceV1Routes {
		req.Header.Set("DD-API-KEY", t.config.APIKey)
		req.Header.Set("DD-EVP-ORIGIN", t.config.Origin)
		req.Header.Set("DD-EVP-ORIGIN-VERSION", t.config.OriginVersion)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return classify(ctx, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)

	switch code := resp.StatusCode; {
	case code >= 500 || code == http.StatusTooManyRequests:
		return domain.Retryable(&StatusError{Code: code, Body: string(body)})
	case code >= 400:
		t.logger.Error("unable to send payload due to client error",
			ports.Int("status", code),
			ports.String("body", string(body)),
			ports.Int("bytes", len(payload)),
		)
		return domain.Rejected(&StatusError{Code: code, Body: string(body)})
	}
	return nil
}

// Close drops idle pooled connections.
func (t *Transport) Close() error {
	if c, ok := t.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}

// classify maps a client.Do failure to cancellation, a retryable network
// failure, or a fatal error.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Cancelled(ctxErr)
	}
	if isNetworkError(err) {
		return domain.Retryable(err)
	}
	return err
}

// isNetworkError reports timeouts, socket and DNS failures, and broken
// protocol exchanges. *url.Error is peeled first since it satisfies
// net.Error for every failure.
func isNetworkError(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}

	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var recErr tls.RecordHeaderError
	return errors.As(err, &recErr)
}
