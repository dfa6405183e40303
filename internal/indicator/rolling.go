package indicator

import "fx-signalsv1/internal/model"

// RollingMax returns the trailing maximum of candle highs over the last
// `window` candles inclusive of the current one. Undefined until `window`
// candles are available.
func RollingMax(series model.Series, window int) []Value {
	return rolling(series, window, func(c *model.Candle) float64 { return c.High },
		func(acc, v float64) bool { return v > acc })
}

// RollingMin returns the trailing minimum of candle lows, same availability
// rule as RollingMax.
func RollingMin(series model.Series, window int) []Value {
	return rolling(series, window, func(c *model.Candle) float64 { return c.Low },
		func(acc, v float64) bool { return v < acc })
}

func rolling(series model.Series, window int, pick func(*model.Candle) float64, better func(acc, v float64) bool) []Value {
	vals := make([]Value, len(series))
	if window <= 0 {
		return vals
	}
	for i := window - 1; i < len(series); i++ {
		acc := pick(&series[i-window+1])
		for j := i - window + 2; j <= i; j++ {
			if v := pick(&series[j]); better(acc, v) {
				acc = v
			}
		}
		vals[i] = Def(acc)
	}
	return vals
}

// RollingMeanVolume returns the trailing simple mean of volume over the last
// `window` candles inclusive of the current one.
func RollingMeanVolume(series model.Series, window int) []Value {
	vals := make([]Value, len(series))
	if window <= 0 {
		return vals
	}
	var sum float64
	for i := range series {
		sum += series[i].Volume
		if i >= window {
			sum -= series[i-window].Volume
		}
		if i >= window-1 {
			vals[i] = Def(sum / float64(window))
		}
	}
	return vals
}
