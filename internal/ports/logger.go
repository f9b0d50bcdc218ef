package ports

import "github.com/bft-labs/specialists/pkg/log"

// Logger is the structured logging port. It is the pkg/log interface so
// adapters and library users share one definition.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

var (
	String   = log.String
	Strings  = log.Strings
	Worker   = log.Worker
	Int      = log.Int
	Int64    = log.Int64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Err      = log.Err
	Any      = log.Any
)
