package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/logship/internal/ports"
)

// mockLogger implements ports.Logger for testing and remembers messages.
type mockLogger struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func (*mockLogger) Debug(msg string, fields ...ports.Field) {}
func (*mockLogger) Info(msg string, fields ...ports.Field)  {}

func (l *mockLogger) Warn(msg string, fields ...ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *mockLogger) Error(msg string, fields ...ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.errors...)
}

// mockTransport records payloads and replays scripted results.
type mockTransport struct {
	mu       sync.Mutex
	sent     [][]byte
	results  []error // consumed in order; the last one repeats
	closed   int
	onSend   func(attempt int)
	closeErr error
}

func (m *mockTransport) Send(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	m.sent = append(m.sent, append([]byte(nil), payload...))
	attempt := len(m.sent)
	var err error
	switch {
	case len(m.results) == 0:
	case attempt <= len(m.results):
		err = m.results[attempt-1]
	default:
		err = m.results[len(m.results)-1]
	}
	hook := m.onSend
	m.mu.Unlock()

	if hook != nil {
		hook(attempt)
	}
	return err
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return m.closeErr
}

func (m *mockTransport) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, p := range m.sent {
		out[i] = string(p)
	}
	return out
}

// recordingEmitter counts events.
type recordingEmitter struct {
	mu        sync.Mutex
	received  int
	delivered []int // attempts per delivered payload
	bytes     []int
	retries   []time.Duration
	dropped   []string
}

func (e *recordingEmitter) OnReceived(records int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.received += records
}

func (e *recordingEmitter) OnDelivered(_ string, _, bytes, attempts int, _ time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delivered = append(e.delivered, attempts)
	e.bytes = append(e.bytes, bytes)
}

func (e *recordingEmitter) OnRetry(_ string, _ int, backoff time.Duration, _ error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retries = append(e.retries, backoff)
}

func (e *recordingEmitter) OnDropped(_ string, _ int, reason string, _ error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropped = append(e.dropped, reason)
}

// mockObserver tracks state change events for testing.
type mockObserver struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockObserver) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockObserver) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}
