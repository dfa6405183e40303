// Package notification delivers finalized alert records to external
// channels: Telegram, a CSV file, or the process log. Every notifier
// implements engine.Sink; delivery failures are the notifier's own problem
// and never affect dedup state upstream.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fx-signalsv1/internal/engine"
	"fx-signalsv1/internal/model"
)

// LogNotifier writes alerts to the process log (useful for development and
// for diagnostics outside trading hours).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Accept(_ context.Context, a engine.Alert) error {
	if a.Signal == nil {
		log.Printf("[notify] %s: %s", a.Symbol, a.Note)
		return nil
	}
	log.Printf("[notify] %s %s %s entry=%.5f sl=%.5f tp=%.5f lot=%.2f",
		a.Symbol, a.Signal.Kind, a.Signal.Direction,
		a.Setup.EntryPrice, a.Setup.StopPrice, a.Setup.TargetPrice, a.Setup.LotSize)
	return nil
}

// orderLabel renders the limit-order wording of the original alerts:
// SELL LIMIT for bearish signals, BUY LIMIT for bullish ones.
func orderLabel(d model.Direction) string {
	if d == model.Bearish {
		return "SELL LIMIT"
	}
	return "BUY LIMIT"
}

// kindLabel is the human heading per detector kind.
func kindLabel(k model.SignalKind) string {
	switch k {
	case model.KindFairValueGap:
		return "FVG Detected"
	case model.KindLiquidityGrab:
		return "Liquidity Grab"
	case model.KindBreakout:
		return "Breakout"
	case model.KindMTFReversal:
		return "MTF Reversal"
	}
	return string(k)
}

// renderAlert builds the plain-text alert body shared by Telegram and the
// log-style sinks.
func renderAlert(a engine.Alert) string {
	if a.Signal == nil {
		return fmt.Sprintf("%s: %s", a.Symbol, a.Note)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s)\n", a.Symbol, kindLabel(a.Signal.Kind), orderLabel(a.Signal.Direction))
	fmt.Fprintf(&b, "Entry: %.5f\n", a.Setup.EntryPrice)
	fmt.Fprintf(&b, "Current Price: %.5f\n", a.Price)
	fmt.Fprintf(&b, "SL: %.5f | TP: %.5f\n", a.Setup.StopPrice, a.Setup.TargetPrice)
	fmt.Fprintf(&b, "Lot Size: %.2f\n", a.Setup.LotSize)
	fmt.Fprintf(&b, "Profit Target (price diff): %.5f\n", a.Setup.ProfitDistance)
	fmt.Fprintf(&b, "Loss Target (price diff): %.5f\n", a.Setup.LossDistance)
	if rsi, ok := a.Signal.Metrics["rsi_fast"]; ok {
		fmt.Fprintf(&b, "RSI: %.2f", rsi)
		if slow, ok := a.Signal.Metrics["rsi_slow"]; ok {
			fmt.Fprintf(&b, " | RSI slow: %.2f", slow)
		}
		if atr, ok := a.Signal.Metrics["atr"]; ok {
			fmt.Fprintf(&b, " | ATR: %.5f", atr)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Time: %s", a.Signal.AnchorTS.UTC().Format("2006-01-02 15:04:05"))
	return b.String()
}
