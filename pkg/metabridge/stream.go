package metabridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"fx-signalsv1/internal/model"

	"github.com/gorilla/websocket"
)

const (
	heartbeatInterval = 10 * time.Second
	readDeadline      = 30 * time.Second
	maxReconnectDelay = 2 * time.Minute
)

// streamMsg is one frame on the candle stream.
type streamMsg struct {
	Type      string  `json:"type"` // "candle", "pong", "error"
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	TS        int64   `json:"ts"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Message   string  `json:"message"`
}

// CandleStream subscribes to closed candles over the bridge's WebSocket
// and invokes OnCandle per frame. It reconnects with exponential backoff
// and resubscribes after every reconnect.
type CandleStream struct {
	wsURL       string
	apiKey      string
	accessToken string

	mu      sync.Mutex
	symbols []string
	tf      string

	// OnCandle receives each closed candle. Must not block.
	OnCandle func(symbol string, c model.Candle)
}

// NewCandleStream creates a stream against the client's session. The
// client must be logged in first.
func NewCandleStream(c *Client, timeframe string) *CandleStream {
	wsURL := strings.Replace(c.cfg.BaseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return &CandleStream{
		wsURL:       wsURL + "/ws/candles",
		apiKey:      c.cfg.APIKey,
		accessToken: c.accessToken,
		tf:          timeframe,
	}
}

// Subscribe adds symbols to the subscription set. Takes effect on the
// next (re)connect, or immediately if called before Run.
func (s *CandleStream) Subscribe(symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = append(s.symbols, symbols...)
}

// Run connects and consumes frames until ctx is cancelled. Connection
// drops are retried with exponential backoff.
func (s *CandleStream) Run(ctx context.Context) error {
	delay := time.Second
	for {
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[metabridge-ws] connection lost: %v, reconnecting in %v", err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (s *CandleStream) connectAndRead(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.accessToken)
	header.Set("X-API-Key", s.apiKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := s.subscribeAll(conn); err != nil {
		return err
	}
	log.Printf("[metabridge-ws] connected, %d symbol(s) subscribed", len(s.symbols))

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	// Heartbeat loop keeps the bridge from dropping idle sessions.
	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		t := time.NewTicker(heartbeatInterval)
		defer t.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		var msg streamMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[metabridge-ws] bad frame: %v", err)
			continue
		}
		switch msg.Type {
		case "candle":
			if s.OnCandle != nil {
				s.OnCandle(msg.Symbol, model.Candle{
					TS:     time.Unix(msg.TS, 0).UTC(),
					Open:   msg.Open,
					High:   msg.High,
					Low:    msg.Low,
					Close:  msg.Close,
					Volume: msg.Volume,
				})
			}
		case "error":
			log.Printf("[metabridge-ws] bridge error: %s", msg.Message)
		}
	}
}

func (s *CandleStream) subscribeAll(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.symbols) == 0 {
		return nil
	}
	return conn.WriteJSON(map[string]any{
		"action":    "subscribe",
		"symbols":   s.symbols,
		"timeframe": s.tf,
	})
}
