package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

type captureLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *captureLogger) Debug(string, ...ports.Field) {}
func (l *captureLogger) Info(string, ...ports.Field)  {}
func (l *captureLogger) Warn(string, ...ports.Field)  {}
func (l *captureLogger) Error(msg string, _ ...ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *captureLogger) Errors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

type clientFunc func(*http.Request) (*http.Response, error)

func (f clientFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// configFor points a Config at a test server.
func configFor(t *testing.T, serverURL string) Config {
	t.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return Config{
		Host:          host,
		Port:          port,
		UseSSL:        u.Scheme == "https",
		SSLVerify:     true,
		APIKey:        "secret",
		Timeout:       5 * time.Second,
		Origin:        "logship",
		OriginVersion: "test",
	}
}

func newTestTransport(t *testing.T, cfg Config, logger ports.Logger) *Transport {
	t.Helper()
	tr, err := NewTransport(cfg, nil, logger)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "current route over ssl",
			cfg:  Config{Host: "http-intake.logs.datadoghq.com", Port: 443, UseSSL: true, APIKey: "k"},
			want: "https://http-intake.logs.datadoghq.com:443/api/v2/logs",
		},
		{
			name: "plain http",
			cfg:  Config{Host: "localhost", Port: 8080, APIKey: "k"},
			want: "http://localhost:8080/api/v2/logs",
		},
		{
			name: "legacy route",
			cfg:  Config{Host: "localhost", Port: 8080, ForceV1Routes: true, APIKey: "abc123"},
			want: "http://localhost:8080/v1/input/abc123",
		},
		{
			name: "legacy route escapes key",
			cfg:  Config{Host: "localhost", Port: 80, ForceV1Routes: true, APIKey: "a/b c"},
			want: "http://localhost:80/v1/input/a%2Fb%20c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Endpoint(); got != tt.want {
				t.Errorf("Endpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSend_CurrentRouteHeaders(t *testing.T) {
	var gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/v2/logs" {
			t.Errorf("Path = %s, want /api/v2/logs", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		if got := r.Header.Get("Content-Encoding"); got != "" {
			t.Errorf("Content-Encoding = %q, want empty", got)
		}
		if got := r.Header.Get("DD-API-KEY"); got != "secret" {
			t.Errorf("DD-API-KEY = %q, want secret", got)
		}
		if got := r.Header.Get("DD-EVP-ORIGIN"); got != "logship" {
			t.Errorf("DD-EVP-ORIGIN = %q, want logship", got)
		}
		if got := r.Header.Get("DD-EVP-ORIGIN-VERSION"); got != "test" {
			t.Errorf("DD-EVP-ORIGIN-VERSION = %q, want test", got)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	tr := newTestTransport(t, configFor(t, ts.URL), &captureLogger{})
	if err := tr.Send(context.Background(), []byte(`[{"message":"hi"}]`)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotBody != `[{"message":"hi"}]` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSend_LegacyRoute(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/input/secret" {
			t.Errorf("Path = %s, want /v1/input/secret", r.URL.Path)
		}
		if got := r.Header.Get("DD-API-KEY"); got != "" {
			t.Errorf("DD-API-KEY = %q, want empty on legacy route", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cfg := configFor(t, ts.URL)
	cfg.ForceV1Routes = true
	tr := newTestTransport(t, cfg, &captureLogger{})
	if err := tr.Send(context.Background(), []byte("[]")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestSend_CompressionHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Encoding"); got != "gzip" {
			t.Errorf("Content-Encoding = %q, want gzip", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cfg := configFor(t, ts.URL)
	cfg.UseCompression = true
	tr := newTestTransport(t, cfg, &captureLogger{})
	if err := tr.Send(context.Background(), []byte{0x1f, 0x8b}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestSend_StatusClassification(t *testing.T) {
	tests := []struct {
		status        int
		wantErr       bool
		wantRetryable bool
		wantRejected  bool
		wantLogged    bool
	}{
		{status: http.StatusOK},
		{status: http.StatusAccepted},
		{status: http.StatusMovedPermanently},
		{status: http.StatusBadRequest, wantErr: true, wantRejected: true, wantLogged: true},
		{status: http.StatusForbidden, wantErr: true, wantRejected: true, wantLogged: true},
		{status: http.StatusRequestEntityTooLarge, wantErr: true, wantRejected: true, wantLogged: true},
		{status: http.StatusTooManyRequests, wantErr: true, wantRetryable: true},
		{status: http.StatusInternalServerError, wantErr: true, wantRetryable: true},
		{status: http.StatusServiceUnavailable, wantErr: true, wantRetryable: true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer ts.Close()

			logger := &captureLogger{}
			tr := newTestTransport(t, configFor(t, ts.URL), logger)
			err := tr.Send(context.Background(), []byte("[]"))

			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if domain.IsRetryable(err) != tt.wantRetryable {
				t.Errorf("IsRetryable = %v, want %v", domain.IsRetryable(err), tt.wantRetryable)
			}
			if domain.IsRejected(err) != tt.wantRejected {
				t.Errorf("IsRejected = %v, want %v", domain.IsRejected(err), tt.wantRejected)
			}
			if (logger.Errors() > 0) != tt.wantLogged {
				t.Errorf("logged errors = %d, wantLogged %v", logger.Errors(), tt.wantLogged)
			}
			if tt.wantErr {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) || statusErr.Code != tt.status || statusErr.Body != "nope" {
					t.Errorf("StatusError = %+v", statusErr)
				}
			}
		})
	}
}

func TestSend_ConnectionRefusedIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := configFor(t, ts.URL)
	ts.Close()

	tr := newTestTransport(t, cfg, &captureLogger{})
	err := tr.Send(context.Background(), []byte("[]"))
	if !domain.IsRetryable(err) {
		t.Fatalf("Send() error = %v, want retryable", err)
	}
}

func TestSend_ClientTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	cfg := configFor(t, ts.URL)
	cfg.Timeout = 50 * time.Millisecond
	tr := newTestTransport(t, cfg, &captureLogger{})
	err := tr.Send(context.Background(), []byte("[]"))
	if !domain.IsRetryable(err) {
		t.Fatalf("Send() error = %v, want retryable", err)
	}
}

func TestSend_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTestTransport(t, configFor(t, ts.URL), &captureLogger{})
	err := tr.Send(ctx, []byte("[]"))
	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("Send() error = %v, want ErrCancelled", err)
	}
	if domain.IsRetryable(err) {
		t.Error("cancellation must not be retryable")
	}
}

func TestSend_UnknownErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	client := clientFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})
	tr, err := NewTransport(Config{Host: "localhost", Port: 80}, client, &captureLogger{})
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	err = tr.Send(context.Background(), []byte("[]"))
	if !errors.Is(err, boom) {
		t.Fatalf("Send() error = %v, want boom", err)
	}
	if domain.IsRetryable(err) {
		t.Error("unknown client error must be fatal")
	}
}

func TestSend_TLS(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	t.Run("verification disabled", func(t *testing.T) {
		cfg := configFor(t, ts.URL)
		cfg.SSLVerify = false
		tr := newTestTransport(t, cfg, &captureLogger{})
		if err := tr.Send(context.Background(), []byte("[]")); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	})

	t.Run("untrusted certificate is fatal", func(t *testing.T) {
		tr := newTestTransport(t, configFor(t, ts.URL), &captureLogger{})
		err := tr.Send(context.Background(), []byte("[]"))
		if err == nil {
			t.Fatal("Send() expected certificate error")
		}
		if domain.IsRetryable(err) {
			t.Errorf("certificate error must not be retryable: %v", err)
		}
	})
}

func TestSend_Proxy(t *testing.T) {
	var mu sync.Mutex
	var proxied string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		proxied = r.URL.String()
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer proxy.Close()

	cfg := Config{
		Host:   "intake.example.invalid",
		Port:   8080,
		APIKey: "secret",
		Proxy:  proxy.URL,
	}
	tr := newTestTransport(t, cfg, &captureLogger{})
	if err := tr.Send(context.Background(), []byte("[]")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if proxied != "http://intake.example.invalid:8080/api/v2/logs" {
		t.Errorf("proxied URL = %q", proxied)
	}
}

func TestNewTransport_InvalidProxy(t *testing.T) {
	_, err := NewTransport(Config{Host: "localhost", Port: 80, Proxy: "://bad"}, nil, &captureLogger{})
	if err == nil {
		t.Fatal("expected error for invalid proxy URL")
	}
}

func TestClose_Idempotent(t *testing.T) {
	tr := newTestTransport(t, Config{Host: "localhost", Port: 80}, &captureLogger{})
	for i := 0; i < 3; i++ {
		if err := tr.Close(); err != nil {
			t.Fatalf("Close() #%d error = %v", i, err)
		}
	}
}
