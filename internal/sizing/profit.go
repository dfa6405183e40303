package sizing

import (
	"math"
	"strings"
)

// StandardLotUnits is the FX convention: one lot is 100,000 units of the
// base currency. Crypto CFDs trade 1:1.
const StandardLotUnits = 100000

// Units returns the traded unit count for a symbol and lot size. USD pairs
// use the standard lot convention except BTC, which trades unit-for-unit.
func Units(symbol string, lots float64) float64 {
	u := strings.ToUpper(symbol)
	if strings.Contains(u, "USD") && !strings.Contains(u, "BTC") {
		return lots * StandardLotUnits
	}
	return lots
}

// Profit computes the realized P/L of a closed hypothetical trade.
// direction is the trade side the position was opened with.
func Profit(symbol string, long bool, openPrice, closePrice, lots float64) float64 {
	diff := closePrice - openPrice
	if !long {
		diff = openPrice - closePrice
	}
	return round2(Units(symbol, lots) * diff)
}

// ProfitPercent expresses a P/L amount as a percentage of the balance.
// Returns 0 for a non-positive balance.
func ProfitPercent(profit, balance float64) float64 {
	if balance <= 0 {
		return 0
	}
	return profit / balance * 100
}

// RequiredMargin returns the margin needed to open the position at the
// given leverage (e.g. 100 for 1:100).
func RequiredMargin(openPrice, lots, leverage float64) float64 {
	if leverage <= 0 {
		return 0
	}
	notional := openPrice * lots * StandardLotUnits
	return round2(notional / leverage)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
