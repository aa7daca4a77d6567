package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

func newTestEngine(cfg EngineConfig, tr *mockTransport) (*Engine, *mockLogger, *recordingEmitter) {
	if cfg.Retry.Tick == 0 {
		cfg.Retry.Tick = time.Millisecond
	}
	logger := &mockLogger{}
	em := &recordingEmitter{}
	return NewEngine(cfg, tr, logger, em), logger, em
}

func TestEngine_HTTPBatches(t *testing.T) {
	tr := &mockTransport{}
	e, _, em := newTestEngine(EngineConfig{UseHTTP: true, MaxBatchCount: 6, MaxBatchBytes: 6}, tr)

	records := domain.RecordsFromStrings("dd1", "dd2", "dd3", "dd4")
	if err := e.MultiReceive(context.Background(), records); err != nil {
		t.Fatalf("MultiReceive() = %v", err)
	}

	want := []string{"[dd1,dd2]", "[dd3,dd4]"}
	if got := tr.Sent(); !reflect.DeepEqual(got, want) {
		t.Errorf("sent = %v, want %v", got, want)
	}
	if em.received != 4 {
		t.Errorf("received = %d, want 4", em.received)
	}
}

func TestEngine_HTTPCompression(t *testing.T) {
	tr := &mockTransport{}
	e, _, _ := newTestEngine(EngineConfig{UseHTTP: true, UseCompression: true, CompressionLevel: 6}, tr)

	records := domain.RecordsFromStrings(`{"message":"a"}`, `{"message":"b"}`)
	if err := e.MultiReceive(context.Background(), records); err != nil {
		t.Fatalf("MultiReceive() = %v", err)
	}

	sent := tr.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d payloads, want 1", len(sent))
	}
	if got := string(gunzip(t, []byte(sent[0]))); got != `[{"message":"a"},{"message":"b"}]` {
		t.Errorf("decompressed = %s", got)
	}
}

func TestEngine_CompressionFailureDropsPayload(t *testing.T) {
	tr := &mockTransport{}
	e, logger, em := newTestEngine(EngineConfig{UseHTTP: true, UseCompression: true, CompressionLevel: 42}, tr)

	if err := e.MultiReceive(context.Background(), domain.RecordsFromStrings("dd")); err != nil {
		t.Fatalf("MultiReceive() = %v, want nil", err)
	}
	if n := len(tr.Sent()); n != 0 {
		t.Errorf("sent %d payloads, want 0", n)
	}
	if !reflect.DeepEqual(em.dropped, []string{ports.DropFatal}) {
		t.Errorf("dropped = %v", em.dropped)
	}
	if len(logger.Errors()) != 1 {
		t.Errorf("error logs = %v", logger.Errors())
	}
}

func TestEngine_TCPOneLinePerRecord(t *testing.T) {
	tr := &mockTransport{}
	e, _, _ := newTestEngine(EngineConfig{APIKey: "xxx", MaxBatchBytes: 20}, tr)

	records := domain.RecordsFromStrings("{message=dd}", "{message=foobarfoobarfoobar}", "{message=ee}")
	if err := e.MultiReceive(context.Background(), records); err != nil {
		t.Fatalf("MultiReceive() = %v", err)
	}

	want := []string{"xxx {message=dd}", "xxx {...TRUNCATED...", "xxx {message=ee}"}
	if got := tr.Sent(); !reflect.DeepEqual(got, want) {
		t.Errorf("sent = %v, want %v", got, want)
	}
}

func TestEngine_FatalErrorDoesNotStopStream(t *testing.T) {
	tr := &mockTransport{results: []error{errors.New("boom"), nil}}
	e, logger, em := newTestEngine(EngineConfig{APIKey: "k"}, tr)

	if err := e.MultiReceive(context.Background(), domain.RecordsFromStrings("a", "b", "c")); err != nil {
		t.Fatalf("MultiReceive() = %v, want nil", err)
	}
	if n := len(tr.Sent()); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
	if len(em.delivered) != 2 || len(em.dropped) != 1 {
		t.Errorf("delivered = %v, dropped = %v", em.delivered, em.dropped)
	}
	if len(logger.Errors()) != 1 {
		t.Errorf("error logs = %v", logger.Errors())
	}
}

func TestEngine_CancellationPropagates(t *testing.T) {
	tr := &mockTransport{results: []error{domain.Cancelled(context.Canceled)}}
	e, logger, _ := newTestEngine(EngineConfig{APIKey: "k"}, tr)

	err := e.MultiReceive(context.Background(), domain.RecordsFromStrings("a", "b"))
	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("MultiReceive() = %v, want ErrCancelled", err)
	}
	if n := len(tr.Sent()); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
	if len(logger.Errors()) != 0 {
		t.Errorf("cancellation must not be logged as an error: %v", logger.Errors())
	}
}

func TestEngine_CancelledContextStopsBeforeSending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := &mockTransport{}
	e, _, _ := newTestEngine(EngineConfig{UseHTTP: true}, tr)

	if err := e.MultiReceive(ctx, domain.RecordsFromStrings("a")); !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("MultiReceive() = %v, want ErrCancelled", err)
	}
	if n := len(tr.Sent()); n != 0 {
		t.Errorf("attempts = %d, want 0", n)
	}
}

func TestEngine_EmptyInputIsNoop(t *testing.T) {
	tr := &mockTransport{}
	e, _, em := newTestEngine(EngineConfig{UseHTTP: true}, tr)

	if err := e.MultiReceive(context.Background(), nil); err != nil {
		t.Fatalf("MultiReceive(nil) = %v", err)
	}
	if len(tr.Sent()) != 0 || em.received != 0 {
		t.Error("empty input should not send or emit")
	}
}

func TestEngine_CloseOnce(t *testing.T) {
	tr := &mockTransport{closeErr: errors.New("already gone")}
	e, _, _ := newTestEngine(EngineConfig{UseHTTP: true}, tr)

	err1 := e.Close()
	err2 := e.Close()
	if tr.closed != 1 {
		t.Errorf("transport closed %d times, want 1", tr.closed)
	}
	if err1 == nil || err1 != err2 {
		t.Errorf("Close() = %v then %v, want the same error twice", err1, err2)
	}

	if err := e.MultiReceive(context.Background(), domain.RecordsFromStrings("a")); !errors.Is(err, domain.ErrClosed) {
		t.Errorf("MultiReceive after Close = %v, want ErrClosed", err)
	}
}

func TestEngine_ConcurrentCallersKeepTheirOrder(t *testing.T) {
	tr := &mockTransport{}
	e, _, _ := newTestEngine(EngineConfig{APIKey: "k"}, tr)

	const workers, perWorker = 4, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			records := make([]domain.Record, perWorker)
			for i := range records {
				records[i] = domain.Record(fmt.Sprintf("w%d-%02d", w, i))
			}
			if err := e.MultiReceive(context.Background(), records); err != nil {
				t.Errorf("MultiReceive() = %v", err)
			}
		}(w)
	}
	wg.Wait()

	sent := tr.Sent()
	if len(sent) != workers*perWorker {
		t.Fatalf("sent %d lines, want %d", len(sent), workers*perWorker)
	}
	last := map[byte]string{}
	for _, line := range sent {
		w := line[3]
		if prev, ok := last[w]; ok && prev >= line {
			t.Errorf("worker %c out of order: %q after %q", w, line, prev)
		}
		last[w] = line
	}
}
