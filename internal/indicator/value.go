// Package indicator provides pure technical indicator functions over a
// candle series. All functions are stateless: same input, same output.
//
// Values are aligned 1:1 with the input series by index, and every value is
// computed only from candles at or before its index, with no look-ahead. Warm-up
// indices carry Defined=false instead of a propagating NaN.
package indicator

// Value is one per-index indicator output: a real number, or undefined when
// there is insufficient history.
type Value struct {
	Val     float64
	Defined bool
}

// Undef is the undefined indicator value.
var Undef = Value{}

// Def wraps a defined value.
func Def(v float64) Value { return Value{Val: v, Defined: true} }

// At returns the value at index i, or undefined when i is out of range.
// Detectors that need "as of the previous candle" history request At(i-1).
func At(vals []Value, i int) Value {
	if i < 0 || i >= len(vals) {
		return Undef
	}
	return vals[i]
}
