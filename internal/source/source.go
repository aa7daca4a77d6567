package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/logship/internal/ports"
)

// DefaultPollInterval is how often a followed file is checked for growth
// when no filesystem event arrives.
const DefaultPollInterval = time.Second

// Source produces raw lines. Run blocks until the input is exhausted or ctx
// is cancelled; cancellation is not an error.
type Source interface {
	Run(ctx context.Context, emit func(line []byte)) error
}

// StreamSource reads lines from a stream such as stdin.
type StreamSource struct {
	r io.Reader
}

// NewStreamSource wraps r.
func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{r: r}
}

// Run reads until EOF. A blocked read is abandoned on cancellation: the
// reader goroutine lives on until its next read returns, but nothing it reads
// after Run has returned is emitted. Closing the reader ends it promptly.
func (s *StreamSource) Run(ctx context.Context, emit func(line []byte)) error {
	g := &gate{emit: emit}
	done := make(chan error, 1)
	go func() {
		lr := newLineReader(s.r)
		err := lr.drain(g.pass)
		lr.flush(g.pass)
		done <- err
	}()

	select {
	case <-ctx.Done():
		g.close()
		return nil
	case err := <-done:
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		return nil
	}
}

// gate forwards lines until closed. close waits for an in-flight emit.
type gate struct {
	mu     sync.Mutex
	closed bool
	emit   func(line []byte)
}

func (g *gate) pass(line []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.emit(line)
	}
}

func (g *gate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// FileSource reads lines from a file, optionally following appends,
// truncation and rotation.
type FileSource struct {
	Path         string
	Follow       bool
	PollInterval time.Duration

	logger ports.Logger
}

// NewFileSource creates a file source.
func NewFileSource(path string, follow bool, logger ports.Logger) *FileSource {
	return &FileSource{
		Path:         path,
		Follow:       follow,
		PollInterval: DefaultPollInterval,
		logger:       logger,
	}
}

func (s *FileSource) Run(ctx context.Context, emit func(line []byte)) error {
	if s.Follow {
		return s.follow(ctx, emit)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	return NewStreamSource(f).Run(ctx, emit)
}

// tail tracks the currently open incarnation of a followed file.
type tail struct {
	path   string
	file   *os.File
	lines  *lineReader
	logger ports.Logger
}

func (t *tail) open() error {
	f, err := os.Open(t.path)
	if err != nil {
		return err
	}
	t.file = f
	if t.lines == nil {
		t.lines = newLineReader(f)
	} else {
		t.lines.reset(f)
	}
	return nil
}

// read emits whatever was appended since the last read, restarting from the
// beginning if the file shrank.
func (t *tail) read(emit func([]byte)) error {
	if t.file == nil {
		return nil
	}
	if fi, err := t.file.Stat(); err == nil && fi.Size() < t.lines.offset {
		t.logger.Info("file truncated, reading from start", ports.String("path", t.path))
		if _, err := t.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek %s: %w", t.path, err)
		}
		t.lines.reset(t.file)
	}
	return t.lines.drain(emit)
}

// release drains and closes the current incarnation.
func (t *tail) release(emit func([]byte)) {
	if t.file == nil {
		return
	}
	if err := t.read(emit); err != nil {
		t.logger.Warn("reading rotated file", ports.String("path", t.path), ports.Err(err))
	}
	t.lines.flush(emit)
	t.file.Close()
	t.file = nil
}

func (s *FileSource) follow(ctx context.Context, emit func(line []byte)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so rotation that replaces the file is seen.
	path := filepath.Clean(s.Path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	t := &tail{path: path, logger: s.logger}
	if err := t.open(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer t.release(emit)

	s.logger.Info("following file", ports.String("path", path))

	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	poll := time.NewTicker(interval)
	defer poll.Stop()

	readOrWarn := func() {
		if err := t.read(emit); err != nil {
			s.logger.Warn("reading followed file", ports.String("path", path), ports.Err(err))
		}
	}
	readOrWarn()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				t.release(emit)
				if err := t.open(); err != nil {
					s.logger.Warn("reopening file", ports.String("path", path), ports.Err(err))
					continue
				}
				s.logger.Info("file recreated, following new file", ports.String("path", path))
				readOrWarn()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				t.release(emit)
			case event.Has(fsnotify.Write):
				readOrWarn()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher error", ports.Err(err))

		case <-poll.C:
			if t.file == nil {
				// Missed the create event.
				if err := t.open(); err == nil {
					readOrWarn()
				}
				continue
			}
			readOrWarn()
		}
	}
}
