// Package model defines the shared data types for the signal engine:
// candles, signals, trade setups, risk configuration, and the error kinds
// every stage reports with.
package model

import (
	"strconv"
	"time"
)

// Candle represents one OHLCV bar for a fixed interval.
// Timestamps are UTC instants aligned to the bar open.
type Candle struct {
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered candle sequence, strictly increasing by timestamp.
// The engine never mutates a Series; the caller owns it for the duration
// of one evaluation pass.
type Series []Candle

// Validate checks ordering and price sanity. An empty series is valid;
// it simply yields no signals.
func (s Series) Validate() error {
	for i := range s {
		c := &s[i]
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return &ConfigError{Field: "series", Reason: "non-positive price at index " + strconv.Itoa(i)}
		}
		if c.Volume < 0 {
			return &ConfigError{Field: "series", Reason: "negative volume at index " + strconv.Itoa(i)}
		}
		if i > 0 && !s[i-1].TS.Before(c.TS) {
			return &ConfigError{Field: "series", Reason: "timestamps not strictly increasing at index " + strconv.Itoa(i)}
		}
	}
	return nil
}

// Last returns the most recent candle. ok is false for an empty series.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}
