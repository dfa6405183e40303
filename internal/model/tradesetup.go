package model

// TradeDirection is the order side derived from a signal direction.
type TradeDirection string

const (
	Long  TradeDirection = "LONG"
	Short TradeDirection = "SHORT"
)

// TradeSide maps a signal direction to an order side.
func TradeSide(d Direction) TradeDirection {
	if d == Bearish {
		return Short
	}
	return Long
}

// TradeSetup is a sized hypothetical trade derived from a Signal and a
// RiskConfig. Never mutated after creation; it always refers to the same
// anchor price point as the signal it was built from.
type TradeSetup struct {
	Direction      TradeDirection `json:"direction"`
	EntryPrice     float64        `json:"entry_price"`
	StopPrice      float64        `json:"stop_price"`
	TargetPrice    float64        `json:"target_price"`
	LotSize        float64        `json:"lot_size"`
	RiskAmount     float64        `json:"risk_amount"`
	ProfitDistance float64        `json:"profit_distance"`
	LossDistance   float64        `json:"loss_distance"`
}

// RiskConfig is the per-symbol risk budget and instrument parameters,
// immutable for the duration of an evaluation.
type RiskConfig struct {
	AccountBalance float64 // account equity, e.g. 10000
	RiskPercent    float64 // percent of balance risked per trade, e.g. 1.0
	PipIncrement   float64 // smallest price move for 1 pip, e.g. 0.0001
	PipValuePerLot float64 // currency value of 1 pip for a 1-lot position
	Leverage       float64 // e.g. 100 for 1:100
	MarginPerLot   float64 // margin required per lot
}

// MaxExposure returns the account-level exposure ceiling.
func (r *RiskConfig) MaxExposure() float64 {
	return r.AccountBalance * r.Leverage
}

// Validate rejects configurations that would produce a zero-divide or a
// meaningless lot size.
func (r *RiskConfig) Validate() error {
	if r.PipIncrement <= 0 {
		return &ConfigError{Field: "pip_increment", Reason: "must be positive"}
	}
	if r.AccountBalance <= 0 {
		return &ConfigError{Field: "account_balance", Reason: "must be positive"}
	}
	if r.RiskPercent <= 0 {
		return &ConfigError{Field: "risk_percent", Reason: "must be positive"}
	}
	if r.PipValuePerLot <= 0 {
		return &ConfigError{Field: "pip_value_per_lot", Reason: "must be positive"}
	}
	if r.Leverage < 0 {
		return &ConfigError{Field: "leverage", Reason: "must be non-negative"}
	}
	if r.MarginPerLot < 0 {
		return &ConfigError{Field: "margin_per_lot", Reason: "must be non-negative"}
	}
	return nil
}
