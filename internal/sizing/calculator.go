// Package sizing converts a candidate signal into a sized trade setup
// against the account's risk budget, and provides the standalone profit and
// margin calculators.
package sizing

import (
	"math"

	"fx-signalsv1/internal/model"
)

// Default pip buffers: 10 pips to the stop, 20 to the target.
const (
	DefaultStopPips   = 10
	DefaultTargetPips = 20

	// MinLotSize is the floor applied when the computed lot size is
	// non-finite or its denominator is zero.
	MinLotSize = 0.01
)

// Buffers holds instrument-specific stop/target distances in pips. A zero
// value falls back to the defaults.
type Buffers struct {
	StopPips   float64
	TargetPips float64
}

// BuildSetup derives a TradeSetup from a signal's entry price and direction
// under the given risk configuration. The setup always refers to the same
// anchor price point as the signal.
//
// Returns a ConfigError when the risk inputs cannot produce a meaningful
// lot size; a zero-divide never leaks out as Inf or NaN.
func BuildSetup(sig *model.Signal, risk *model.RiskConfig, buf Buffers) (*model.TradeSetup, error) {
	if err := risk.Validate(); err != nil {
		return nil, err
	}
	if buf.StopPips <= 0 {
		buf.StopPips = DefaultStopPips
	}
	if buf.TargetPips <= 0 {
		buf.TargetPips = DefaultTargetPips
	}

	entry := sig.Price
	slBuffer := risk.PipIncrement * buf.StopPips
	tpBuffer := risk.PipIncrement * buf.TargetPips

	dir := model.TradeSide(sig.Direction)
	var stop, target float64
	if dir == model.Short {
		stop = entry + slBuffer
		target = entry - tpBuffer
	} else {
		stop = entry - slBuffer
		target = entry + tpBuffer
	}

	riskAmount := risk.AccountBalance * risk.RiskPercent / 100
	lossPips := math.Abs(entry-stop) / risk.PipIncrement

	lotSize := MinLotSize
	if denom := lossPips * risk.PipValuePerLot; denom != 0 {
		lotSize = riskAmount / denom
		if math.IsInf(lotSize, 0) || math.IsNaN(lotSize) {
			lotSize = MinLotSize
		}
	}

	// Account-level exposure ceiling.
	if risk.MarginPerLot > 0 {
		if maxLots := risk.MaxExposure() / risk.MarginPerLot; lotSize > maxLots {
			lotSize = maxLots
		}
	}
	lotSize = math.Round(lotSize*100) / 100

	return &model.TradeSetup{
		Direction:      dir,
		EntryPrice:     entry,
		StopPrice:      stop,
		TargetPrice:    target,
		LotSize:        lotSize,
		RiskAmount:     riskAmount,
		ProfitDistance: math.Abs(target - entry),
		LossDistance:   math.Abs(entry - stop),
	}, nil
}
