// Package metrics exposes Prometheus metrics for the signal bot.
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal engine service.
type Metrics struct {
	EvaluationsTotal  *prometheus.CounterVec // labels: symbol
	EvaluationErrors  *prometheus.CounterVec // labels: symbol, kind
	SignalsDetected   *prometheus.CounterVec // labels: symbol
	AlertsForwarded   *prometheus.CounterVec // labels: symbol, detector
	DedupSuppressed   *prometheus.CounterVec // labels: symbol
	SinkErrors        *prometheus.CounterVec // labels: sink
	EvaluationDur     prometheus.Histogram
	SessionActive     prometheus.Gauge // 0=outside windows, 1=inside
	CandleFetchDur    prometheus.Histogram
	CandleFetchErrors prometheus.Counter
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_evaluations_total",
			Help: "Total evaluation passes per symbol",
		}, []string{"symbol"}),
		EvaluationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_evaluation_errors_total",
			Help: "Evaluation failures per symbol and error kind",
		}, []string{"symbol", "kind"}),
		SignalsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_signals_detected_total",
			Help: "Candidate signals produced by detectors",
		}, []string{"symbol"}),
		AlertsForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_alerts_forwarded_total",
			Help: "Alerts forwarded past the session/dedup gate",
		}, []string{"symbol", "detector"}),
		DedupSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_dedup_suppressed_total",
			Help: "Signals suppressed as duplicates",
		}, []string{"symbol"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_sink_errors_total",
			Help: "Alert sink delivery failures",
		}, []string{"sink"}),
		EvaluationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalbot_evaluation_duration_seconds",
			Help:    "Duration of one full evaluation pass",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_session_active",
			Help: "1 when the current time falls inside a trading session",
		}),
		CandleFetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalbot_candle_fetch_duration_seconds",
			Help:    "Duration of candle retrieval per symbol",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		CandleFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_candle_fetch_errors_total",
			Help: "Candle retrieval failures",
		}),
	}

	prometheus.MustRegister(
		m.EvaluationsTotal, m.EvaluationErrors, m.SignalsDetected,
		m.AlertsForwarded, m.DedupSuppressed, m.SinkErrors,
		m.EvaluationDur, m.SessionActive, m.CandleFetchDur, m.CandleFetchErrors,
	)
	return m
}

// Serve starts the /metrics HTTP endpoint in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[metrics] serving on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}
