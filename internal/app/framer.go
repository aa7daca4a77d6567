package app

import (
	"bytes"

	"github.com/bft-labs/logship/internal/domain"
)

// TruncationMarker replaces the tail of any payload cut down to fit a size bound.
const TruncationMarker = "...TRUNCATED..."

// Truncate shortens payload to exactly maxLength bytes, overwriting the tail
// with TruncationMarker. Payloads that already fit are returned unchanged.
// When maxLength is smaller than the marker, the marker itself is returned
// and the result is longer than maxLength.
func Truncate(payload []byte, maxLength int) []byte {
	if len(payload) <= maxLength {
		return payload
	}
	keep := maxLength - len(TruncationMarker)
	if keep < 0 {
		return []byte(TruncationMarker)
	}
	out := make([]byte, 0, maxLength)
	out = append(out, payload[:keep]...)
	return append(out, TruncationMarker...)
}

// FrameTCP prefixes a record with the API key and a space and truncates the
// combined line to maxBytes. The newline terminator is added by the transport.
func FrameTCP(record domain.Record, apiKey string, maxBytes int) []byte {
	line := make([]byte, 0, len(apiKey)+1+record.Len())
	line = append(line, apiKey...)
	line = append(line, ' ')
	line = append(line, record...)
	return Truncate(line, maxBytes)
}

// FrameHTTP renders a batch as a JSON array of its records. Records are
// inserted verbatim; the codec is responsible for producing valid JSON.
func FrameHTTP(b *domain.Batch) []byte {
	var buf bytes.Buffer
	buf.Grow(b.TotalBytes + b.Size() + 1)
	buf.WriteByte('[')
	for i, r := range b.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(r)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}
