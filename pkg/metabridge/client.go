// Package metabridge is a client for the MetaBridge REST/WebSocket gateway
// that fronts the MT5 terminal: session login with TOTP, historical candle
// retrieval, and a live candle stream.
package metabridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"fx-signalsv1/internal/model"

	"github.com/pquerna/otp/totp"
)

// Config configures the MetaBridge client.
type Config struct {
	BaseURL    string // e.g. "https://bridge.example.com"
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string        // base32 secret for the session TOTP
	Timeout    time.Duration // default: 7s
	Debug      bool
}

// Client is an authenticated MetaBridge REST client. Login must be called
// before any data method; a 403 triggers SessionExpiryHook when set.
type Client struct {
	cfg         Config
	accessToken string
	httpClient  *http.Client

	// Optional callback invoked when the bridge rejects the session.
	SessionExpiryHook func()
}

var routes = map[string]string{
	"api.login":   "/rest/auth/v1/login",
	"api.logout":  "/rest/auth/v1/logout",
	"api.candles": "/rest/data/v1/candles",
	"api.quote":   "/rest/data/v1/quote",
	"api.account": "/rest/account/v1/summary",
}

// New creates a MetaBridge client. It does not log in.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 7 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Login generates a TOTP code from the configured secret and opens a
// session. The returned access token is stored on the client.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("metabridge: totp: %w", err)
	}

	var res struct {
		Status bool `json:"status"`
		Data   struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
		Message string `json:"message"`
	}
	err = c.do(ctx, http.MethodPost, "api.login", map[string]any{
		"client_code": c.cfg.ClientCode,
		"password":    c.cfg.Password,
		"totp":        code,
	}, &res)
	if err != nil {
		return err
	}
	if !res.Status || res.Data.AccessToken == "" {
		return fmt.Errorf("metabridge: login failed: %s", res.Message)
	}

	c.accessToken = res.Data.AccessToken
	log.Printf("[metabridge] session opened for %s", c.cfg.ClientCode)
	return nil
}

// Logout terminates the session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "api.logout", map[string]any{
		"client_code": c.cfg.ClientCode,
	}, nil)
	c.accessToken = ""
	return err
}

// candleRow is the bridge's wire format: [epoch_sec, o, h, l, c, volume].
type candleRow [6]float64

// GetCandles fetches the most recent count candles for a symbol at the
// given timeframe ("5m", "1h", ...), oldest first. An empty response maps
// to ErrDataUnavailable so callers can skip the tick.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, count int) (model.Series, error) {
	var res struct {
		Status  bool        `json:"status"`
		Data    []candleRow `json:"data"`
		Message string      `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "api.candles", map[string]any{
		"symbol":    symbol,
		"timeframe": timeframe,
		"count":     count,
	}, &res)
	if err != nil {
		return nil, err
	}
	if !res.Status {
		return nil, fmt.Errorf("metabridge: candles %s: %s", symbol, res.Message)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("metabridge: candles %s: %w", symbol, model.ErrDataUnavailable)
	}

	series := make(model.Series, 0, len(res.Data))
	for _, r := range res.Data {
		series = append(series, model.Candle{
			TS:     time.Unix(int64(r[0]), 0).UTC(),
			Open:   r[1],
			High:   r[2],
			Low:    r[3],
			Close:  r[4],
			Volume: r[5],
		})
	}
	return series, nil
}

// GetQuote returns the current bid/ask midpoint for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (float64, error) {
	var res struct {
		Status bool `json:"status"`
		Data   struct {
			Bid float64 `json:"bid"`
			Ask float64 `json:"ask"`
		} `json:"data"`
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodGet, "api.quote", map[string]any{"symbol": symbol}, &res)
	if err != nil {
		return 0, err
	}
	if !res.Status {
		return 0, fmt.Errorf("metabridge: quote %s: %s", symbol, res.Message)
	}
	return (res.Data.Bid + res.Data.Ask) / 2, nil
}

// AccountSummary is the bridge's account snapshot.
type AccountSummary struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	FreeMargin float64 `json:"free_margin"`
}

// GetAccountSummary returns the account snapshot, used to refresh the
// balance the risk budget is computed from.
func (c *Client) GetAccountSummary(ctx context.Context) (*AccountSummary, error) {
	var res struct {
		Status  bool           `json:"status"`
		Data    AccountSummary `json:"data"`
		Message string         `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "api.account", nil, &res); err != nil {
		return nil, err
	}
	if !res.Status {
		return nil, fmt.Errorf("metabridge: account: %s", res.Message)
	}
	return &res.Data, nil
}

func (c *Client) buildURL(route string) (string, error) {
	uri, ok := routes[route]
	if !ok {
		return "", fmt.Errorf("metabridge: unknown route: %s", route)
	}
	return c.cfg.BaseURL + uri, nil
}

func (c *Client) do(ctx context.Context, method, route string, params map[string]any, out any) error {
	url, err := c.buildURL(route)
	if err != nil {
		return err
	}

	var body io.Reader
	if method != http.MethodGet && params != nil {
		b, _ := json.Marshal(params)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("metabridge: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if method == http.MethodGet && params != nil {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, fmt.Sprint(v))
		}
		req.URL.RawQuery = q.Encode()
	}

	if c.cfg.Debug {
		log.Printf("[metabridge] %s %s params=%v", method, url, params)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("metabridge: %s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("metabridge: read response: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		if c.SessionExpiryHook != nil {
			c.SessionExpiryHook()
		}
		return errors.New("metabridge: session expired")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metabridge: %s: unexpected status %d", route, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("metabridge: parse response: %w", err)
		}
	}
	return nil
}
