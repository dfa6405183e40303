package indicator

import (
	"math"

	"fx-signalsv1/internal/model"
)

// ATR computes the Average True Range: the simple rolling mean of the true
// range over `period` candles.
//
// True range needs the previous close, so TR is undefined at index 0 and
// ATR[i] is first defined at index `period` (one missing TR plus the
// period-1 warm-up).
func ATR(series model.Series, period int) []Value {
	vals := make([]Value, len(series))
	if period <= 0 || len(series) <= period {
		return vals
	}

	tr := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		c := &series[i]
		prevClose := series[i-1].Close
		tr[i] = math.Max(c.High-c.Low,
			math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
	}

	var sum float64
	for i := 1; i < len(series); i++ {
		sum += tr[i]
		if i > period {
			sum -= tr[i-period]
		}
		if i >= period {
			vals[i] = Def(sum / float64(period))
		}
	}
	return vals
}
