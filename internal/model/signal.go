package model

import (
	"strconv"
	"time"
)

// SignalKind identifies which detector produced a signal.
type SignalKind string

const (
	KindFairValueGap  SignalKind = "FVG"
	KindLiquidityGrab SignalKind = "LIQUIDITY_GRAB"
	KindBreakout      SignalKind = "BREAKOUT"
	KindMTFReversal   SignalKind = "MTF_REVERSAL"
)

// Direction is the market direction of a signal.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
)

// Signal is a candidate trade signal emitted by a detector.
// Immutable once produced.
type Signal struct {
	Kind      SignalKind         `json:"kind"`
	Direction Direction          `json:"direction"`
	AnchorTS  time.Time          `json:"anchor_ts"`
	Price     float64            `json:"price"` // reference/entry price
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// FingerprintMode controls dedup granularity.
type FingerprintMode int

const (
	// FingerprintKindDirection suppresses repeats of the same kind+direction,
	// regardless of price. Matches the original per-symbol last-signal check.
	FingerprintKindDirection FingerprintMode = iota

	// FingerprintKindDirectionPrice additionally distinguishes signals whose
	// reference price differs after rounding to 5 decimal places.
	FingerprintKindDirectionPrice
)

// Fingerprint renders the dedup identity of the signal under the given mode.
func (s *Signal) Fingerprint(mode FingerprintMode) string {
	fp := string(s.Kind) + ":" + string(s.Direction)
	if mode == FingerprintKindDirectionPrice {
		fp += ":" + strconv.FormatFloat(s.Price, 'f', 5, 64)
	}
	return fp
}
