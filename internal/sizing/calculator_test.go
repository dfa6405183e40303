package sizing

import (
	"errors"
	"math"
	"testing"
	"time"

	"fx-signalsv1/internal/model"
)

func eurUsdRisk() *model.RiskConfig {
	return &model.RiskConfig{
		AccountBalance: 10000,
		RiskPercent:    1.0,
		PipIncrement:   0.0001,
		PipValuePerLot: 10,
		Leverage:       100,
		MarginPerLot:   1100,
	}
}

func sellSignal(price float64) *model.Signal {
	return &model.Signal{
		Kind:      model.KindFairValueGap,
		Direction: model.Bearish,
		AnchorTS:  time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		Price:     price,
	}
}

func assertEq(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func TestBuildSetup_Sell_EURUSD(t *testing.T) {
	// entry 1.1000, 10-pip SL buffer, 20-pip TP buffer:
	//   stop   = 1.1000 + 0.0010 = 1.1010
	//   target = 1.1000 - 0.0020 = 1.0980
	// risk = 10000 * 1% = $100, loss_pips = 10
	// lot = 100 / (10 * 10) = 1.00
	setup, err := BuildSetup(sellSignal(1.1000), eurUsdRisk(), Buffers{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if setup.Direction != model.Short {
		t.Errorf("direction = %s, want SHORT", setup.Direction)
	}
	assertEq(t, "stop", setup.StopPrice, 1.1010)
	assertEq(t, "target", setup.TargetPrice, 1.0980)
	assertEq(t, "risk amount", setup.RiskAmount, 100)
	assertEq(t, "lot size", setup.LotSize, 1.00)
	assertEq(t, "profit distance", setup.ProfitDistance, 0.0020)
	assertEq(t, "loss distance", setup.LossDistance, 0.0010)
}

func TestBuildSetup_Long_SidesFlipped(t *testing.T) {
	sig := sellSignal(1.1000)
	sig.Direction = model.Bullish

	setup, err := BuildSetup(sig, eurUsdRisk(), Buffers{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup.Direction != model.Long {
		t.Errorf("direction = %s, want LONG", setup.Direction)
	}
	assertEq(t, "stop", setup.StopPrice, 1.0990)
	assertEq(t, "target", setup.TargetPrice, 1.1020)
}

func TestBuildSetup_CustomBuffers(t *testing.T) {
	setup, err := BuildSetup(sellSignal(1.1000), eurUsdRisk(), Buffers{StopPips: 25, TargetPips: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, "stop", setup.StopPrice, 1.1025)
	assertEq(t, "target", setup.TargetPrice, 1.0950)
	// loss_pips = 25 → lot = 100 / (25*10) = 0.40
	assertEq(t, "lot size", setup.LotSize, 0.40)
}

func TestBuildSetup_ExposureClamp(t *testing.T) {
	// Tiny stop distance inflates the raw lot size; the exposure ceiling
	// max_exposure / margin_per_lot = (100 * 100) / 5000 = 2 lots wins.
	risk := &model.RiskConfig{
		AccountBalance: 100,
		RiskPercent:    50,
		PipIncrement:   0.0001,
		PipValuePerLot: 0.1,
		Leverage:       100,
		MarginPerLot:   5000,
	}
	setup, err := BuildSetup(sellSignal(1.1000), risk, Buffers{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// raw lot = 50 / (10 * 0.1) = 50 → clamped to 2.00
	assertEq(t, "clamped lot", setup.LotSize, 2.00)
}

func TestBuildSetup_InvalidConfiguration(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.RiskConfig)
	}{
		{"zero pip increment", func(r *model.RiskConfig) { r.PipIncrement = 0 }},
		{"negative pip increment", func(r *model.RiskConfig) { r.PipIncrement = -0.0001 }},
		{"negative risk percent", func(r *model.RiskConfig) { r.RiskPercent = -1 }},
		{"zero balance", func(r *model.RiskConfig) { r.AccountBalance = 0 }},
		{"zero pip value", func(r *model.RiskConfig) { r.PipValuePerLot = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			risk := eurUsdRisk()
			tc.mutate(risk)
			_, err := BuildSetup(sellSignal(1.1000), risk, Buffers{})
			if err == nil {
				t.Fatal("expected a configuration error")
			}
			var cfgErr *model.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *model.ConfigError", err)
			}
		})
	}
}

func TestBuildSetup_LotNeverNonFinite(t *testing.T) {
	// A pathological pip value cannot produce Inf/NaN: the floor applies.
	risk := eurUsdRisk()
	risk.PipValuePerLot = math.SmallestNonzeroFloat64
	risk.MarginPerLot = 0 // no clamp

	setup, err := BuildSetup(sellSignal(1.1000), risk, Buffers{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsInf(setup.LotSize, 0) || math.IsNaN(setup.LotSize) {
		t.Fatalf("lot size = %v, want finite", setup.LotSize)
	}
}

// ────────────────────────────────────────────────────────────
// Profit / margin calculator
// ────────────────────────────────────────────────────────────

func TestProfit_FXLong(t *testing.T) {
	// 0.5 lot EUR/USD long, +20 pips: 50000 * 0.0020 = $100
	assertEq(t, "fx profit", Profit("EURUSD", true, 1.1000, 1.1020, 0.5), 100)
}

func TestProfit_ShortInverts(t *testing.T) {
	assertEq(t, "short profit", Profit("EURUSD", false, 1.1020, 1.1000, 0.5), 100)
	assertEq(t, "short loss", Profit("EURUSD", false, 1.1000, 1.1020, 0.5), -100)
}

func TestProfit_BTCUnitForUnit(t *testing.T) {
	assertEq(t, "btc profit", Profit("BTC-USD", true, 60000, 61000, 0.5), 500)
}

func TestProfitPercent(t *testing.T) {
	assertEq(t, "pct", ProfitPercent(100, 10000), 1.0)
	assertEq(t, "pct zero balance", ProfitPercent(100, 0), 0)
}

func TestRequiredMargin(t *testing.T) {
	// 1 lot at 1.1000 with 1:100 leverage: 110000 / 100 = 1100
	assertEq(t, "margin", RequiredMargin(1.1000, 1, 100), 1100)
	assertEq(t, "margin zero leverage", RequiredMargin(1.1000, 1, 0), 0)
}
