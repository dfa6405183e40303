package detector

import (
	"fx-signalsv1/internal/indicator"
	"fx-signalsv1/internal/model"
)

// Liquidity detects liquidity grabs and volume-confirmed breakouts against
// rolling 20-bar support/resistance levels.
//
// The level tested by bar i is the rolling extreme as of bar i-1, the prior
// bar's view of support/resistance, so the tested level never includes the
// testing bar itself. A grab is a breach of the level that closes back
// inside it within the same bar; a breakout is a close beyond the level on
// at least 1.5x the rolling mean volume. A single bar satisfies at most one
// grab condition and at most one breakout condition, but grab and breakout
// are evaluated independently and may both fire on the same bar.
type Liquidity struct {
	window  int
	volMult float64
}

// DefaultLevelWindow is the rolling window used for support/resistance
// levels and the volume mean.
const DefaultLevelWindow = 20

// NewLiquidity creates the liquidity grab / breakout detector. A window of
// 0 or less falls back to DefaultLevelWindow; volMult of 0 or less falls
// back to 1.5.
func NewLiquidity(window int, volMult float64) *Liquidity {
	if window <= 0 {
		window = DefaultLevelWindow
	}
	if volMult <= 0 {
		volMult = 1.5
	}
	return &Liquidity{window: window, volMult: volMult}
}

func (d *Liquidity) Name() string { return "liquidity" }

func (d *Liquidity) Detect(series model.Series) []model.Signal {
	if len(series) <= d.window {
		return nil
	}

	highRoll := indicator.RollingMax(series, d.window)
	lowRoll := indicator.RollingMin(series, d.window)
	volMean := indicator.RollingMeanVolume(series, d.window)

	var signals []model.Signal
	for i := d.window; i < len(series); i++ {
		hr := indicator.At(highRoll, i-1)
		lr := indicator.At(lowRoll, i-1)
		if !hr.Defined || !lr.Defined {
			continue
		}

		c := &series[i]

		// Liquidity grab: wick through the level, close back inside.
		if c.Low < lr.Val && c.Close > lr.Val {
			signals = append(signals, model.Signal{
				Kind:      model.KindLiquidityGrab,
				Direction: model.Bullish,
				AnchorTS:  c.TS,
				Price:     c.Low,
				Metrics:   map[string]float64{"support": lr.Val},
			})
		} else if c.High > hr.Val && c.Close < hr.Val {
			signals = append(signals, model.Signal{
				Kind:      model.KindLiquidityGrab,
				Direction: model.Bearish,
				AnchorTS:  c.TS,
				Price:     c.High,
				Metrics:   map[string]float64{"resistance": hr.Val},
			})
		}

		// Breakout: close beyond the level on expanded volume.
		vm := indicator.At(volMean, i)
		if !vm.Defined {
			continue
		}
		if c.Close > hr.Val && c.Volume > d.volMult*vm.Val {
			signals = append(signals, model.Signal{
				Kind:      model.KindBreakout,
				Direction: model.Bullish,
				AnchorTS:  c.TS,
				Price:     c.Close,
				Metrics:   map[string]float64{"resistance": hr.Val, "volume": c.Volume, "vol_mean": vm.Val},
			})
		} else if c.Close < lr.Val && c.Volume > d.volMult*vm.Val {
			signals = append(signals, model.Signal{
				Kind:      model.KindBreakout,
				Direction: model.Bearish,
				AnchorTS:  c.TS,
				Price:     c.Close,
				Metrics:   map[string]float64{"support": lr.Val, "volume": c.Volume, "vol_mean": vm.Val},
			})
		}
	}
	return signals
}
