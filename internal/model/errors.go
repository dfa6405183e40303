package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrDataUnavailable marks an empty or under-length candle series. The
// symbol is skipped for the tick; it is not a fatal condition and must not
// change any state.
var ErrDataUnavailable = errors.New("market data unavailable")

// ConfigError is an invalid-configuration error. Fatal for the affected
// symbol's evaluation; surfaced to the caller, never swallowed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// EvalError wraps a failure during one symbol's evaluation with enough
// context (symbol, detector, timestamp) for the dispatcher to log on.
// One symbol's EvalError never aborts other symbols in the same tick.
type EvalError struct {
	Symbol   string
	Detector string
	TS       time.Time
	Err      error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s (%s at %s): %v",
		e.Symbol, e.Detector, e.TS.UTC().Format(time.RFC3339), e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }
