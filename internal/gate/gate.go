package gate

import (
	"sync"
	"time"

	"fx-signalsv1/internal/model"
)

// Gate is the stateful session and dedup filter, evaluated once per tick
// per symbol. Access to the shared state is serialized internally, so
// concurrent evaluations for different symbols are safe; evaluations for
// the same symbol must still be serialized by the caller, or interleaved
// FilterBatch/MarkBatch pairs would see each other's state.
//
// Dedup state is kept per symbol and detector kind: the value is the joined
// fingerprint of the signals of that kind last forwarded, so re-running an
// unchanged series forwards nothing.
type Gate struct {
	windows []SessionWindow
	mode    model.FingerprintMode

	mu                sync.Mutex
	lastFingerprint   map[string]string // "symbol|kind" → last forwarded fingerprint(s)
	lastActiveSession string
}

// New creates a Gate with empty dedup state. An empty window set means
// always inside trading hours. State is process-lifetime: a restart
// re-arms all symbols unless Restore is used.
func New(windows []SessionWindow, mode model.FingerprintMode) *Gate {
	return &Gate{
		windows:         windows,
		mode:            mode,
		lastFingerprint: make(map[string]string),
	}
}

// Session returns the active window at t, or nil outside all windows.
// started is true exactly once per transition into a (new) session: the
// one-time session-start notice.
func (g *Gate) Session(t time.Time) (w *SessionWindow, started bool) {
	if len(g.windows) == 0 {
		return nil, false
	}
	w = ActiveSession(g.windows, t)
	name := ""
	if w != nil {
		name = w.Name
	}
	g.mu.Lock()
	started = w != nil && name != g.lastActiveSession
	g.lastActiveSession = name
	g.mu.Unlock()
	return w, started
}

// InTradingHours reports whether detector output may be forwarded at t.
// Detectors may still run outside hours for diagnostics; only forwarding
// is gated.
func (g *Gate) InTradingHours(t time.Time) bool {
	return len(g.windows) == 0 || ActiveSession(g.windows, t) != nil
}

func dedupKey(symbol string, kind model.SignalKind) string {
	return symbol + "|" + string(kind)
}

// ShouldForward compares a single signal's fingerprint against the last one
// forwarded for the symbol and detector kind. It does NOT update state:
// call MarkForwarded after the signal has actually been handed to the
// dispatcher, so a sink failure never rolls dedup back (delivery is the
// sink's problem).
func (g *Gate) ShouldForward(symbol string, sig *model.Signal) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sig.Fingerprint(g.mode) != g.lastFingerprint[dedupKey(symbol, sig.Kind)]
}

// MarkForwarded records the signal as the last one emitted for the symbol
// and kind.
func (g *Gate) MarkForwarded(symbol string, sig *model.Signal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFingerprint[dedupKey(symbol, sig.Kind)] = sig.Fingerprint(g.mode)
}

// FilterBatch applies dedup to one evaluation pass's candidates. Signals
// are grouped by kind; a kind's group passes only when its joined
// fingerprint differs from the group last forwarded. Order is preserved.
// State is untouched; call MarkBatch after dispatch.
func (g *Gate) FilterBatch(symbol string, sigs []model.Signal) []model.Signal {
	joined := joinByKind(symbol, sigs, g.mode)
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Signal
	for i := range sigs {
		key := dedupKey(symbol, sigs[i].Kind)
		if joined[key] != g.lastFingerprint[key] {
			out = append(out, sigs[i])
		}
	}
	return out
}

// MarkBatch records the pass's forwarded signals, grouped by kind.
func (g *Gate) MarkBatch(symbol string, sigs []model.Signal) {
	joined := joinByKind(symbol, sigs, g.mode)
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, fp := range joined {
		g.lastFingerprint[key] = fp
	}
}

func joinByKind(symbol string, sigs []model.Signal, mode model.FingerprintMode) map[string]string {
	joined := make(map[string]string)
	for i := range sigs {
		key := dedupKey(symbol, sigs[i].Kind)
		if joined[key] != "" {
			joined[key] += "|"
		}
		joined[key] += sigs[i].Fingerprint(mode)
	}
	return joined
}

// Snapshot returns a copy of the dedup state for external persistence.
func (g *Gate) Snapshot() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]string, len(g.lastFingerprint))
	for k, v := range g.lastFingerprint {
		out[k] = v
	}
	return out
}

// Restore replaces the dedup state, e.g. from a store after restart.
func (g *Gate) Restore(state map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFingerprint = make(map[string]string, len(state))
	for k, v := range state {
		g.lastFingerprint[k] = v
	}
}
