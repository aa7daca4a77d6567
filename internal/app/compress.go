package app

import (
	"bytes"
	"compress/gzip"
	"fmt"
)

// Compress wraps payload in a gzip stream at the given level (0-9).
// An out-of-range level is a configuration defect and returns an error.
func Compress(payload []byte, level int) ([]byte, error) {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		return nil, fmt.Errorf("gzip level %d out of range [0,9]", level)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}
