// Package tcp implements the persistent, newline-framed TCP transport.
package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// Config describes the TCP intake endpoint.
type Config struct {
	Host string
	Port int

	UseSSL    bool
	SSLVerify bool

	// DialTimeout and WriteTimeout of zero disable the respective bound.
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Transport implements ports.Transport over a single lazily dialed
// connection. Sends are serialized.
type Transport struct {
	config Config
	dial   dialFunc
	logger ports.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewTransport creates a TCP transport. No connection is made until the
// first Send.
func NewTransport(cfg Config, logger ports.Logger) *Transport {
	t := &Transport{config: cfg, logger: logger}
	netDialer := &net.Dialer{Timeout: cfg.DialTimeout}
	if cfg.UseSSL {
		tlsDialer := &tls.Dialer{
			NetDialer: netDialer,
			Config: &tls.Config{
				ServerName:         cfg.Host,
				InsecureSkipVerify: !cfg.SSLVerify, //nolint:gosec // user-configured
			},
		}
		t.dial = tlsDialer.DialContext
	} else {
		t.dial = netDialer.DialContext
	}
	return t
}

// Send writes payload followed by a newline. Any failure drops the
// connection so the next attempt redials, and is reported as retryable.
func (t *Transport) Send(ctx context.Context, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		if t.config.UseSSL {
			t.logger.Info("starting SSL connection",
				ports.String("addr", t.config.Addr()),
				ports.Bool("verify", t.config.SSLVerify),
			)
		}
		conn, err := t.dial(ctx, "tcp", t.config.Addr())
		if err != nil {
			return domain.Retryable(fmt.Errorf("dial %s: %w", t.config.Addr(), err))
		}
		t.conn = conn
	}

	// A zero deadline clears whatever bound an earlier Send left behind.
	if err := t.conn.SetWriteDeadline(t.writeDeadline(ctx)); err != nil {
		t.dropLocked()
		return domain.Retryable(fmt.Errorf("set write deadline: %w", err))
	}

	line := make([]byte, 0, len(payload)+1)
	line = append(line, payload...)
	line = append(line, '\n')
	if _, err := t.conn.Write(line); err != nil {
		t.dropLocked()
		return domain.Retryable(fmt.Errorf("write: %w", err))
	}
	return nil
}

// Close closes the current connection, if any. Errors are ignored.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dropLocked()
	return nil
}

func (t *Transport) dropLocked() {
	if t.conn == nil {
		return
	}
	if err := t.conn.Close(); err != nil {
		t.logger.Debug("closing connection", ports.Err(err))
	}
	t.conn = nil
}

// writeDeadline picks the earlier of the configured write timeout and the
// context deadline. The zero time means no bound.
func (t *Transport) writeDeadline(ctx context.Context) time.Time {
	var deadline time.Time
	if t.config.WriteTimeout > 0 {
		deadline = time.Now().Add(t.config.WriteTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}
