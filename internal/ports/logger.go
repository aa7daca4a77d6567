package ports

import "github.com/bft-labs/logship/pkg/log"

// Logger is the structured logging port used by the application layer.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported so internal packages only import ports.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any

	PayloadID = log.PayloadID
	Records   = log.Records
	Attempt   = log.Attempt
)
