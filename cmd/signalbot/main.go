package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fx-signalsv1/config"
	"fx-signalsv1/internal/engine"
	"fx-signalsv1/internal/gate"
	"fx-signalsv1/internal/logger"
	"fx-signalsv1/internal/metrics"
	"fx-signalsv1/internal/model"
	"fx-signalsv1/internal/notification"
	redisstore "fx-signalsv1/internal/store/redis"
	sqlitestore "fx-signalsv1/internal/store/sqlite"
	"fx-signalsv1/pkg/metabridge"

	"github.com/prometheus/client_golang/prometheus"
)

// countingSink wraps a sink and counts its delivery failures.
type countingSink struct {
	name string
	next engine.Sink
	errs *prometheus.CounterVec
}

func (s *countingSink) Accept(ctx context.Context, a engine.Alert) error {
	err := s.next.Accept(ctx, a)
	if err != nil {
		s.errs.WithLabelValues(s.name).Inc()
	}
	return err
}

// seriesCache keeps the most recent fast candles per bridge symbol, seeded
// over REST and kept current by the WebSocket stream in stream mode.
type seriesCache struct {
	mu     sync.Mutex
	max    int
	series map[string]model.Series
}

func newSeriesCache(max int) *seriesCache {
	return &seriesCache{max: max, series: make(map[string]model.Series)}
}

func (c *seriesCache) Seed(symbol string, s model.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series[symbol] = append(model.Series(nil), s...)
}

// Append adds a closed candle, dropping replays at or before the latest
// stored timestamp and trimming to the configured window.
func (c *seriesCache) Append(symbol string, cd model.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.series[symbol]
	if n := len(s); n > 0 && !cd.TS.After(s[n-1].TS) {
		return
	}
	s = append(s, cd)
	if len(s) > c.max {
		s = s[len(s)-c.max:]
	}
	c.series[symbol] = s
}

func (c *seriesCache) Get(symbol string) model.Series {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(model.Series(nil), c.series[symbol]...)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[signalbot] starting...")

	cfg := config.Load()
	logger.Init("signalbot", logger.ParseLevel(cfg.LogLevel))

	instruments := cfg.ParseSymbols()
	if len(instruments) == 0 {
		log.Fatal("[signalbot] no valid symbols configured")
	}
	windows := cfg.ParseSessions()
	log.Printf("[signalbot] %d symbol(s), %d session window(s)", len(instruments), len(windows))

	prom := metrics.New()
	metrics.Serve(cfg.MetricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Sinks ----
	var sinks []engine.Sink
	addSink := func(name string, s engine.Sink) {
		sinks = append(sinks, &countingSink{name: name, next: s, errs: prom.SinkErrors})
	}

	addSink("telegram", notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))

	csvSink, err := notification.NewCSVSink(cfg.CSVPath)
	if err != nil {
		log.Fatalf("[signalbot] csv sink: %v", err)
	}
	addSink("csv", csvSink)

	journal, err := sqlitestore.New(sqlitestore.JournalConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[signalbot] sqlite journal: %v", err)
	}
	defer journal.Close()
	addSink("sqlite", journal)

	// ---- Gate with persisted dedup state ----
	g := gate.New(windows, cfg.ParseFingerprintMode())

	dedup, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		// Without Redis a restart re-alerts whatever is still in the
		// window; degraded but serviceable.
		log.Printf("[signalbot] redis unavailable, dedup state will not survive restarts: %v", err)
		dedup = nil
	} else {
		defer dedup.Close()
		state, err := dedup.Load(ctx)
		if err != nil {
			log.Printf("[signalbot] load dedup state: %v", err)
		} else if len(state) > 0 {
			g.Restore(state)
			log.Printf("[signalbot] restored %d dedup fingerprint(s)", len(state))
		}
	}

	// ---- Broker bridge ----
	bridge := metabridge.New(metabridge.Config{
		BaseURL:    cfg.BridgeBaseURL,
		APIKey:     cfg.BridgeAPIKey,
		ClientCode: cfg.BridgeClientCode,
		Password:   cfg.BridgePassword,
		TOTPSecret: cfg.BridgeTOTPSecret,
	})
	bridge.SessionExpiryHook = func() {
		log.Println("[signalbot] bridge session expired, re-login on next tick")
	}
	if err := bridge.Login(ctx); err != nil {
		log.Fatalf("[signalbot] bridge login: %v", err)
	}
	defer bridge.Logout(context.Background())

	// ---- Engine ----
	eng := engine.New(g, sinks...)
	eng.Stats = func(symbol string, detected, forwarded int) {
		prom.SignalsDetected.WithLabelValues(symbol).Add(float64(detected))
		if suppressed := detected - forwarded; suppressed > 0 {
			prom.DedupSuppressed.WithLabelValues(symbol).Add(float64(suppressed))
		}
	}

	bridgeSymbol := make(map[string]string, len(instruments))
	symbolCfgs := make([]engine.SymbolConfig, 0, len(instruments))
	for _, inst := range instruments {
		bridgeSymbol[inst.Symbol] = inst.BridgeSymbol
		symbolCfgs = append(symbolCfgs, engine.SymbolConfig{
			Symbol: inst.Symbol,
			Risk:   cfg.RiskFor(inst),
		})
	}

	// ---- Fast-candle source ----
	var cache *seriesCache
	if cfg.DataMode == "stream" {
		cache = newSeriesCache(cfg.CandleCount)
		stream := metabridge.NewCandleStream(bridge, cfg.FastTimeframe)
		tickers := make([]string, 0, len(instruments))
		for _, inst := range instruments {
			tickers = append(tickers, inst.BridgeSymbol)
		}
		stream.Subscribe(tickers...)
		stream.OnCandle = cache.Append
		go func() {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[signalbot] candle stream stopped: %v", err)
			}
		}()
		log.Printf("[signalbot] streaming fast candles for %d symbol(s)", len(tickers))
	}

	fetchFast := func(ticker string) (model.Series, error) {
		if cache != nil {
			if s := cache.Get(ticker); len(s) > 0 {
				return s, nil
			}
		}
		start := time.Now()
		fast, err := bridge.GetCandles(ctx, ticker, cfg.FastTimeframe, cfg.CandleCount)
		prom.CandleFetchDur.Observe(time.Since(start).Seconds())
		if err != nil {
			prom.CandleFetchErrors.Inc()
			return nil, err
		}
		if cache != nil {
			cache.Seed(ticker, fast)
		}
		return fast, nil
	}

	fetch := func(symbol string) (model.Series, model.Series, error) {
		ticker := bridgeSymbol[symbol]
		fast, err := fetchFast(ticker)
		if err != nil {
			return nil, nil, err
		}
		slow, err := bridge.GetCandles(ctx, ticker, cfg.SlowTimeframe, cfg.CandleCount)
		if err != nil {
			// The higher timeframe only feeds the MTF detector; run the
			// pass without it rather than skipping the symbol.
			log.Printf("[signalbot] %s: slow timeframe unavailable: %v", symbol, err)
			slow = nil
		}
		return fast, slow, nil
	}

	runPass := func(now time.Time) {
		// Risk budgets follow the live account balance; on error the
		// last known balance stays in effect.
		if acct, err := bridge.GetAccountSummary(ctx); err != nil {
			log.Printf("[signalbot] account summary: %v", err)
		} else if acct.Balance > 0 {
			for i := range symbolCfgs {
				symbolCfgs[i].Risk.AccountBalance = acct.Balance
			}
		}

		start := time.Now()
		alerts, errs := eng.EvaluateAll(ctx, symbolCfgs, fetch, now)
		prom.EvaluationDur.Observe(time.Since(start).Seconds())

		if g.InTradingHours(now) {
			prom.SessionActive.Set(1)
		} else {
			prom.SessionActive.Set(0)
		}

		for symbol, out := range alerts {
			prom.EvaluationsTotal.WithLabelValues(symbol).Inc()
			for _, a := range out {
				if a.Signal != nil {
					prom.AlertsForwarded.WithLabelValues(symbol, string(a.Signal.Kind)).Inc()
				}
			}
		}
		for symbol, err := range errs {
			prom.EvaluationsTotal.WithLabelValues(symbol).Inc()
			kind := "eval"
			if engine.IsDataUnavailable(err) {
				kind = "data_unavailable"
				log.Printf("[signalbot] %s: no data this tick", symbol)
			} else {
				log.Printf("[signalbot] %s: %v", symbol, err)
			}
			prom.EvaluationErrors.WithLabelValues(symbol, kind).Inc()
		}

		if dedup != nil {
			if err := dedup.Save(ctx, g.Snapshot()); err != nil {
				log.Printf("[signalbot] persist dedup state: %v", err)
			}
		}
	}

	// ---- Poll loop ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	log.Printf("[signalbot] polling every %v", cfg.PollInterval)
	runPass(time.Now().UTC())

	for {
		select {
		case <-sigCh:
			log.Println("[signalbot] shutdown signal received")
			cancel()
			return
		case t := <-ticker.C:
			runPass(t.UTC())
		}
	}
}
