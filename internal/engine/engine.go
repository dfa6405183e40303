// Package engine runs the per-symbol evaluation pass: indicators →
// detectors → session/dedup gate → trade setup → dispatch.
//
// A pass is synchronous and sequential and performs no I/O of its own
// beyond dispatching to the configured sinks. Concurrent passes for
// different symbols are safe (the gate serializes its shared state);
// passes for the same symbol must be serialized by the caller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fx-signalsv1/internal/detector"
	"fx-signalsv1/internal/gate"
	"fx-signalsv1/internal/model"
	"fx-signalsv1/internal/sizing"
)

// Alert is one finalized record handed to the sinks: a sized signal, or a
// session-start notice (nil Signal/Setup, non-empty Note).
type Alert struct {
	Symbol  string
	At      time.Time
	Session string // active session name, "" when none configured
	Signal  *model.Signal
	Setup   *model.TradeSetup
	Price   float64 // current close at evaluation time
	Note    string
}

// Sink accepts one alert record. Delivery and retry are entirely the
// sink's responsibility; a sink failure never rolls back dedup state.
type Sink interface {
	Accept(ctx context.Context, a Alert) error
}

// SymbolConfig carries everything the engine needs for one symbol.
type SymbolConfig struct {
	Symbol  string
	Risk    model.RiskConfig
	Buffers sizing.Buffers
}

// MaxLiquiditySignals caps how many liquidity/breakout hits are sized and
// forwarded per pass; older ones are informational only.
const MaxLiquiditySignals = 3

// Engine wires the detectors to the gate and the sinks.
type Engine struct {
	gate  *gate.Gate
	fvg   *detector.FairValueGap
	liq   *detector.Liquidity
	mtf   *detector.MTFReversal
	sinks []Sink

	// Stats, when set, receives per-pass candidate and forwarded counts.
	// The difference is the number of dedup-suppressed signals.
	Stats func(symbol string, detected, forwarded int)
}

// New creates an Engine with the default detector parameters.
func New(g *gate.Gate, sinks ...Sink) *Engine {
	return &Engine{
		gate:  g,
		fvg:   detector.NewFairValueGap(),
		liq:   detector.NewLiquidity(detector.DefaultLevelWindow, 1.5),
		mtf:   detector.NewMTFReversal(14, detector.DefaultLevelWindow),
		sinks: sinks,
	}
}

// Evaluate runs one pass for a symbol at time now. fast is the primary
// candle series; slow is the higher-timeframe series for the MTF reversal
// detector and may be empty, which only disables that detector.
//
// Returns the alerts actually forwarded. An empty fast series returns
// ErrDataUnavailable (skip this tick, no state change); an invalid risk
// config returns a ConfigError and must be surfaced by the caller.
func (e *Engine) Evaluate(ctx context.Context, cfg SymbolConfig, fast, slow model.Series, now time.Time) ([]Alert, error) {
	if len(fast) == 0 {
		return nil, &model.EvalError{Symbol: cfg.Symbol, Detector: "fetch", TS: now, Err: model.ErrDataUnavailable}
	}
	if err := fast.Validate(); err != nil {
		return nil, &model.EvalError{Symbol: cfg.Symbol, Detector: "series", TS: now, Err: err}
	}
	if err := cfg.Risk.Validate(); err != nil {
		return nil, &model.EvalError{Symbol: cfg.Symbol, Detector: "risk", TS: now, Err: err}
	}

	last, _ := fast.Last()
	var forwarded []Alert

	// Session membership and the one-time start notice.
	session, started := e.gate.Session(now)
	sessionName := ""
	if session != nil {
		sessionName = session.Name
	}
	if started {
		notice := Alert{
			Symbol:  cfg.Symbol,
			At:      now,
			Session: sessionName,
			Price:   last.Close,
			Note:    "session " + sessionName + " started",
		}
		e.dispatch(ctx, notice)
		forwarded = append(forwarded, notice)
	}

	// Detectors always run; outside trading hours their output is logged
	// but not forwarded.
	candidates := e.collect(fast, slow)
	if len(candidates) == 0 {
		return forwarded, nil
	}
	if !e.gate.InTradingHours(now) {
		log.Printf("[engine] %s: %d signal(s) outside trading hours, not forwarded", cfg.Symbol, len(candidates))
		return forwarded, nil
	}

	fresh := e.gate.FilterBatch(cfg.Symbol, candidates)
	if e.Stats != nil {
		e.Stats(cfg.Symbol, len(candidates), len(fresh))
	}
	for i := range fresh {
		sig := &fresh[i]
		setup, err := sizing.BuildSetup(sig, &cfg.Risk, cfg.Buffers)
		if err != nil {
			return forwarded, &model.EvalError{Symbol: cfg.Symbol, Detector: string(sig.Kind), TS: sig.AnchorTS, Err: err}
		}
		a := Alert{
			Symbol:  cfg.Symbol,
			At:      now,
			Session: sessionName,
			Signal:  sig,
			Setup:   setup,
			Price:   last.Close,
		}
		e.dispatch(ctx, a)
		forwarded = append(forwarded, a)
	}
	// Dedup state advances only after dispatch, and regardless of sink
	// errors: a flaky sink must not cause re-alert storms.
	e.gate.MarkBatch(cfg.Symbol, fresh)

	return forwarded, nil
}

// collect gathers the pass's candidate signals in chronological order:
// the freshest FVG, the last MaxLiquiditySignals liquidity/breakout hits,
// and the MTF reversal on the latest bar, if any.
func (e *Engine) collect(fast, slow model.Series) []model.Signal {
	var candidates []model.Signal

	if gaps := e.fvg.Detect(fast); len(gaps) > 0 {
		candidates = append(candidates, gaps[len(gaps)-1])
	}

	liq := e.liq.Detect(fast)
	if n := len(liq); n > MaxLiquiditySignals {
		liq = liq[n-MaxLiquiditySignals:]
	}
	candidates = append(candidates, liq...)

	if len(slow) > 0 {
		if sig := e.mtf.Detect(fast, slow); sig != nil {
			candidates = append(candidates, *sig)
		}
	}
	return candidates
}

func (e *Engine) dispatch(ctx context.Context, a Alert) {
	for _, s := range e.sinks {
		if err := s.Accept(ctx, a); err != nil {
			log.Printf("[engine] sink error for %s: %v", a.Symbol, err)
		}
	}
}

// IsDataUnavailable reports whether err is the skip-this-tick condition.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, model.ErrDataUnavailable)
}

// EvaluateAll runs Evaluate for each symbol sequentially, isolating
// per-symbol failures: one symbol's error never aborts the others. Errors
// are returned keyed by symbol for the caller to log or alert on.
func (e *Engine) EvaluateAll(ctx context.Context, cfgs []SymbolConfig, fetch func(symbol string) (fast, slow model.Series, err error), now time.Time) (map[string][]Alert, map[string]error) {
	alerts := make(map[string][]Alert, len(cfgs))
	errs := make(map[string]error)

	for _, cfg := range cfgs {
		fast, slow, err := fetch(cfg.Symbol)
		if err != nil {
			errs[cfg.Symbol] = fmt.Errorf("fetch %s: %w", cfg.Symbol, err)
			continue
		}
		out, err := e.Evaluate(ctx, cfg, fast, slow, now)
		if len(out) > 0 {
			alerts[cfg.Symbol] = out
		}
		if err != nil {
			errs[cfg.Symbol] = err
		}
	}
	return alerts, errs
}
