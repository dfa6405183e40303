package indicator

import "fx-signalsv1/internal/model"

// RSI computes the Relative Strength Index over a simple rolling window of
// close-to-close differences. Each window is independently averaged, with no
// Wilder smoothing carry-over.
//
// RSI[i] is undefined for i < period: the first close delta only exists at
// index 1, so a full window of `period` deltas is first available at index
// `period`. When the average loss over the window is zero, RS is infinite
// and RSI saturates to 100; downstream band comparisons need a definite
// number, not a NaN.
func RSI(series model.Series, period int) []Value {
	vals := make([]Value, len(series))
	if period <= 0 || len(series) <= period {
		return vals
	}

	for i := period; i < len(series); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			delta := series[j].Close - series[j-1].Close
			if delta > 0 {
				gainSum += delta
			} else {
				lossSum -= delta
			}
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		if avgLoss == 0 {
			vals[i] = Def(100.0)
			continue
		}
		rs := avgGain / avgLoss
		vals[i] = Def(100.0 - 100.0/(1.0+rs))
	}
	return vals
}
