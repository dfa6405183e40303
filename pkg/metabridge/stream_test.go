package metabridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fx-signalsv1/internal/model"

	"github.com/gorilla/websocket"
)

func TestCandleStream_DeliversAndReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	conns := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/candles" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mu.Lock()
		conns++
		n := conns
		mu.Unlock()

		var sub struct {
			Action    string   `json:"action"`
			Symbols   []string `json:"symbols"`
			Timeframe string   `json:"timeframe"`
		}
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		if sub.Action != "subscribe" || len(sub.Symbols) != 1 || sub.Symbols[0] != "EURUSD" || sub.Timeframe != "5m" {
			t.Errorf("unexpected subscribe frame: %+v", sub)
		}

		conn.WriteJSON(map[string]any{
			"type": "candle", "symbol": "EURUSD",
			"ts": 1748854800 + n, "open": 1.1, "high": 1.2, "low": 1.0, "close": 1.15, "volume": 42,
		})
		if n == 1 {
			// Drop the first connection right after the frame to force
			// a reconnect.
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "key"})
	s := NewCandleStream(c, "5m")
	s.Subscribe("EURUSD")

	got := make(chan model.Candle, 4)
	s.OnCandle = func(symbol string, cd model.Candle) {
		if symbol == "EURUSD" {
			got <- cd
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	first := waitCandle(t, got)
	if first.Close != 1.15 || first.Volume != 42 {
		t.Errorf("first candle = %+v", first)
	}
	if first.TS != time.Unix(1748854801, 0).UTC() {
		t.Errorf("first ts = %v", first.TS)
	}

	// A frame arriving on the second connection proves the stream
	// reconnected and resubscribed.
	waitCandle(t, got)
	mu.Lock()
	if conns < 2 {
		t.Errorf("connections = %d, want at least 2", conns)
	}
	mu.Unlock()

	cancel()
	<-done
}

func waitCandle(t *testing.T, ch <-chan model.Candle) model.Candle {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for a candle")
		return model.Candle{}
	}
}
