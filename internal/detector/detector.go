// Package detector provides the market pattern detectors: fair-value gaps,
// liquidity grabs, breakouts, and multi-timeframe reversals.
//
// A detector consumes a candle series (plus indicator outputs it computes
// itself) and emits candidate signals. Detectors hold no mutable state;
// deduplication and session gating happen downstream in the gate package.
package detector

import "fx-signalsv1/internal/model"

// Detector is the interface for single-series pattern detectors.
type Detector interface {
	// Name returns the detector name for logging and error context.
	Name() string

	// Detect scans the series and returns candidate signals in
	// chronological order. An empty or too-short series yields nil.
	Detect(series model.Series) []model.Signal
}

// priceOK reports whether a price is usable: the series contract forbids
// non-positive prices, so anything else marks a missing bar field.
func priceOK(p float64) bool {
	return p > 0 && p == p // p != p catches NaN
}
