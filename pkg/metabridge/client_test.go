package metabridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fx-signalsv1/internal/model"
)

const testSecret = "JBSWY3DPEHPK3PXP"

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:    srv.URL,
		APIKey:     "key",
		ClientCode: "CC123",
		Password:   "pw",
		TOTPSecret: testSecret,
	})
}

func TestClient_Login_SendsTOTPAndStoresToken(t *testing.T) {
	var gotTOTP, gotAPIKey string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/auth/v1/login" {
			http.NotFound(w, r)
			return
		}
		gotAPIKey = r.Header.Get("X-API-Key")
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		gotTOTP = req["totp"]
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]string{"access_token": "tok-1"},
		})
	}))

	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(gotTOTP) != 6 {
		t.Errorf("totp = %q, want a 6-digit code", gotTOTP)
	}
	if gotAPIKey != "key" {
		t.Errorf("api key header = %q", gotAPIKey)
	}
	if c.accessToken != "tok-1" {
		t.Errorf("access token = %q, want tok-1", c.accessToken)
	}
}

func TestClient_GetCandles(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/data/v1/candles" {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["symbol"] != "EURUSD" || req["timeframe"] != "5m" {
			t.Errorf("request = %v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": [][]float64{
				{1748854800, 1.100, 1.102, 1.099, 1.101, 40},
				{1748855100, 1.101, 1.103, 1.100, 1.102, 55},
			},
		})
	}))

	series, err := c.GetCandles(context.Background(), "EURUSD", "5m", 100)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("len = %d, want 2", len(series))
	}
	if series[0].TS != time.Unix(1748854800, 0).UTC() {
		t.Errorf("ts = %v", series[0].TS)
	}
	if series[1].Close != 1.102 || series[1].Volume != 55 {
		t.Errorf("candle 1 = %+v", series[1])
	}
	if err := series.Validate(); err != nil {
		t.Errorf("fetched series invalid: %v", err)
	}
}

func TestClient_GetCandles_EmptyIsDataUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": true, "data": [][]float64{}})
	}))

	_, err := c.GetCandles(context.Background(), "EURUSD", "5m", 100)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestClient_GetQuote_Midpoint(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/data/v1/quote" || r.URL.Query().Get("symbol") != "EURUSD" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]float64{"bid": 1.1000, "ask": 1.1002},
		})
	}))

	mid, err := c.GetQuote(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if mid != 1.1001 {
		t.Errorf("midpoint = %v, want 1.1001", mid)
	}
}

func TestClient_GetAccountSummary(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/account/v1/summary" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]float64{"balance": 12500, "equity": 12400, "free_margin": 9000},
		})
	}))

	acct, err := c.GetAccountSummary(context.Background())
	if err != nil {
		t.Fatalf("GetAccountSummary: %v", err)
	}
	if acct.Balance != 12500 || acct.FreeMargin != 9000 {
		t.Errorf("summary = %+v", acct)
	}
}

func TestClient_SessionExpiryHook(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	expired := false
	c.SessionExpiryHook = func() { expired = true }

	_, err := c.GetCandles(context.Background(), "EURUSD", "5m", 100)
	if err == nil {
		t.Fatal("expected an error on 403")
	}
	if !expired {
		t.Error("session expiry hook not invoked on 403")
	}
}
