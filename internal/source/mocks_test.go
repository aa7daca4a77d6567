package source

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...ports.Field) {}
func (nopLogger) Info(string, ...ports.Field)  {}
func (nopLogger) Warn(string, ...ports.Field)  {}
func (nopLogger) Error(string, ...ports.Field) {}

// collector gathers emitted lines.
type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) emit(line []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(line))
}

func (c *collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// mockReceiver records every flush.
type mockReceiver struct {
	mu      sync.Mutex
	flushes [][]string
	err     error
}

func (r *mockReceiver) MultiReceive(ctx context.Context, records []domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := make([]string, len(records))
	for i, rec := range records {
		batch[i] = rec.String()
	}
	r.flushes = append(r.flushes, batch)
	return r.err
}

func (r *mockReceiver) Flushes() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.flushes...)
}

func (r *mockReceiver) Records() []string {
	var out []string
	for _, f := range r.Flushes() {
		out = append(out, f...)
	}
	return out
}
