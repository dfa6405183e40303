package detector

import "fx-signalsv1/internal/model"

// FairValueGap detects 3-bar price imbalances: the current bar opens beyond
// the high or low of the bar two back, leaving an unfilled gap.
//
// The reference price is the gap midpoint, the entry idea of the original
// strategy. Multiple historical gaps may be reported, but the engine sizes
// only the most recent one: freshest signal wins, older gaps are
// informational.
type FairValueGap struct{}

// NewFairValueGap creates the FVG detector.
func NewFairValueGap() *FairValueGap { return &FairValueGap{} }

func (d *FairValueGap) Name() string { return "fvg" }

func (d *FairValueGap) Detect(series model.Series) []model.Signal {
	var signals []model.Signal

	for i := 2; i < len(series); i++ {
		prevHigh := series[i-2].High
		prevLow := series[i-2].Low
		currOpen := series[i].Open

		if !priceOK(prevHigh) || !priceOK(prevLow) || !priceOK(currOpen) {
			continue
		}

		switch {
		case currOpen > prevHigh:
			signals = append(signals, model.Signal{
				Kind:      model.KindFairValueGap,
				Direction: model.Bearish,
				AnchorTS:  series[i].TS,
				Price:     (prevHigh + currOpen) / 2,
				Metrics:   map[string]float64{"gap_low": prevHigh, "gap_high": currOpen},
			})
		case currOpen < prevLow:
			signals = append(signals, model.Signal{
				Kind:      model.KindFairValueGap,
				Direction: model.Bullish,
				AnchorTS:  series[i].TS,
				Price:     (currOpen + prevLow) / 2,
				Metrics:   map[string]float64{"gap_low": currOpen, "gap_high": prevLow},
			})
		}
	}
	return signals
}
