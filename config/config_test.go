package config

import (
	"testing"
	"time"

	"fx-signalsv1/internal/model"
)

func TestParseSymbols(t *testing.T) {
	c := &Config{Symbols: "EUR/USD:EURUSD:0.0001:10, XAU/USD:XAUUSD:0.1:10"}
	got := c.ParseSymbols()
	if len(got) != 2 {
		t.Fatalf("parsed %d instruments, want 2", len(got))
	}
	if got[0].Symbol != "EUR/USD" || got[0].BridgeSymbol != "EURUSD" {
		t.Errorf("instrument 0 = %+v", got[0])
	}
	if got[0].PipIncrement != 0.0001 || got[0].PipValue != 10 {
		t.Errorf("instrument 0 pips = %+v", got[0])
	}
	if got[1].PipIncrement != 0.1 {
		t.Errorf("instrument 1 pip = %v", got[1].PipIncrement)
	}
}

func TestParseSymbols_SkipsMalformed(t *testing.T) {
	c := &Config{Symbols: "EUR/USD:EURUSD:0.0001:10,broken,GBP/USD:GBPUSD:zero:10,X:Y:-1:10"}
	got := c.ParseSymbols()
	if len(got) != 1 {
		t.Fatalf("parsed %d instruments, want 1 (rest malformed)", len(got))
	}
	if got[0].Symbol != "EUR/USD" {
		t.Errorf("kept %q", got[0].Symbol)
	}
}

func TestParseSessions(t *testing.T) {
	c := &Config{Sessions: "london=07:00-16:00,newyork=12:00-21:00"}
	got := c.ParseSessions()
	if len(got) != 2 {
		t.Fatalf("parsed %d windows, want 2", len(got))
	}
	if got[0].Name != "london" || got[0].Start != 7*time.Hour {
		t.Errorf("window 0 = %+v", got[0])
	}
}

func TestParseSessions_EmptyMeansAlwaysOn(t *testing.T) {
	c := &Config{Sessions: ""}
	if got := c.ParseSessions(); len(got) != 0 {
		t.Fatalf("parsed %d windows from empty config", len(got))
	}
}

func TestRiskFor(t *testing.T) {
	c := &Config{AccountBalance: 10000, RiskPercent: 1, Leverage: 100, MarginPerLot: 1100}
	inst := Instrument{Symbol: "EUR/USD", PipIncrement: 0.0001, PipValue: 10}

	risk := c.RiskFor(inst)
	if err := risk.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if risk.PipIncrement != 0.0001 || risk.AccountBalance != 10000 {
		t.Errorf("risk = %+v", risk)
	}
}

func TestParseFingerprintMode(t *testing.T) {
	c := &Config{FingerprintMode: "kind_direction_price"}
	if c.ParseFingerprintMode() != model.FingerprintKindDirectionPrice {
		t.Error("price mode not recognized")
	}
	c.FingerprintMode = "anything-else"
	if c.ParseFingerprintMode() != model.FingerprintKindDirection {
		t.Error("default must be kind+direction")
	}
}
