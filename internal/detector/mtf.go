package detector

import (
	"fx-signalsv1/internal/indicator"
	"fx-signalsv1/internal/model"
)

// MTFReversal detects reversals at dynamic support/resistance zones with
// multi-timeframe RSI confirmation. It needs two synchronized series for the
// same symbol: a fast interval (e.g. 15m) and a slow one (e.g. 1h). RSI,
// support, and resistance are computed on the fast series; the slow series
// only contributes its RSI as a trend filter.
//
// Buy:  30 < RSI_fast < 45, bullish fast bar, close at/below support,
//       RSI_slow < 50.
// Sell: 40 < RSI_fast < 55, bearish fast bar, close at/above resistance,
//       RSI_slow > 50.
//
// The RSI bands deliberately overlap on 40–45: in that region the bar
// direction and the slow-RSI filter decide. The bounds are part of the
// strategy and must not be "fixed".
type MTFReversal struct {
	rsiPeriod  int
	zoneWindow int
}

// NewMTFReversal creates the MTF reversal detector. Zero or negative
// parameters fall back to RSI period 14 and zone window 20.
func NewMTFReversal(rsiPeriod, zoneWindow int) *MTFReversal {
	if rsiPeriod <= 0 {
		rsiPeriod = 14
	}
	if zoneWindow <= 0 {
		zoneWindow = DefaultLevelWindow
	}
	return &MTFReversal{rsiPeriod: rsiPeriod, zoneWindow: zoneWindow}
}

func (d *MTFReversal) Name() string { return "mtf_reversal" }

// Detect evaluates the latest fast bar. Returns nil when history is too
// short for any of the inputs or when no condition holds.
func (d *MTFReversal) Detect(fast, slow model.Series) *model.Signal {
	if len(fast) == 0 || len(slow) == 0 {
		return nil
	}
	i := len(fast) - 1

	rsiFast := indicator.At(indicator.RSI(fast, d.rsiPeriod), i)
	rsiSlow := indicator.At(indicator.RSI(slow, d.rsiPeriod), len(slow)-1)
	support := indicator.At(indicator.RollingMin(fast, d.zoneWindow), i)
	resistance := indicator.At(indicator.RollingMax(fast, d.zoneWindow), i)
	atr := indicator.At(indicator.ATR(fast, d.rsiPeriod), i)

	if !rsiFast.Defined || !rsiSlow.Defined || !support.Defined || !resistance.Defined {
		return nil
	}

	bar := &fast[i]
	metrics := map[string]float64{
		"rsi_fast":   rsiFast.Val,
		"rsi_slow":   rsiSlow.Val,
		"support":    support.Val,
		"resistance": resistance.Val,
	}
	if atr.Defined {
		metrics["atr"] = atr.Val
	}

	buy := 30 < rsiFast.Val && rsiFast.Val < 45 &&
		bar.Close > bar.Open &&
		bar.Close <= support.Val &&
		rsiSlow.Val < 50

	sell := 40 < rsiFast.Val && rsiFast.Val < 55 &&
		bar.Close < bar.Open &&
		bar.Close >= resistance.Val &&
		rsiSlow.Val > 50

	switch {
	case buy:
		return &model.Signal{
			Kind:      model.KindMTFReversal,
			Direction: model.Bullish,
			AnchorTS:  bar.TS,
			Price:     bar.Close,
			Metrics:   metrics,
		}
	case sell:
		return &model.Signal{
			Kind:      model.KindMTFReversal,
			Direction: model.Bearish,
			AnchorTS:  bar.TS,
			Price:     bar.Close,
			Metrics:   metrics,
		}
	}
	return nil
}
