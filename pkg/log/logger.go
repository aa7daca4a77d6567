package log

import "time"

// Logger receives the shipper's structured events. Messages are short and
// constant; everything that varies goes into fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value attached to a log event.
type Field struct {
	Key   string
	Value any
}

// Field constructors.

func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Duration(key string, v time.Duration) Field { return Field{Key: key, Value: v} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Err attaches err under "error".
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Keys shared by every component that reports on a payload, so log lines
// about the same payload can be joined.
const (
	KeyPayloadID = "payload_id"
	KeyRecords   = "records"
	KeyAttempt   = "attempt"
)

// PayloadID tags an event with the payload it concerns.
func PayloadID(id string) Field { return String(KeyPayloadID, id) }

// Records reports how many log records a payload carries.
func Records(n int) Field { return Int(KeyRecords, n) }

// Attempt reports the 1-based send attempt.
func Attempt(n int) Field { return Int(KeyAttempt, n) }
