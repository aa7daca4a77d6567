// Package source reads newline-delimited log lines, encodes them as records
// and feeds them to the shipping engine in flushes.
package source

import (
	"encoding/json"
	"fmt"

	"github.com/bft-labs/logship/internal/domain"
)

// Codec names.
const (
	CodecPlain = "plain"
	CodecJSON  = "json"
)

// Codec turns one input line into a record.
type Codec func(line []byte) (domain.Record, error)

// Fields are the attributes attached to every record by the json codec.
// Empty fields are omitted.
type Fields struct {
	Host    string
	Service string
	Source  string
	Tags    string
}

type jsonRecord struct {
	Message  string `json:"message"`
	Host     string `json:"host,omitempty"`
	Service  string `json:"service,omitempty"`
	DDSource string `json:"ddsource,omitempty"`
	DDTags   string `json:"ddtags,omitempty"`
}

// NewCodec returns the codec registered under name. An empty name selects
// CodecJSON. CodecPlain ships lines verbatim, so over HTTP every line must
// already be a JSON value.
func NewCodec(name string, fields Fields) (Codec, error) {
	switch name {
	case CodecPlain:
		return plainCodec, nil
	case "", CodecJSON:
		return func(line []byte) (domain.Record, error) {
			data, err := json.Marshal(jsonRecord{
				Message:  string(line),
				Host:     fields.Host,
				Service:  fields.Service,
				DDSource: fields.Source,
				DDTags:   fields.Tags,
			})
			if err != nil {
				return nil, fmt.Errorf("encode record: %w", err)
			}
			return domain.Record(data), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func plainCodec(line []byte) (domain.Record, error) {
	return domain.Record(line), nil
}
