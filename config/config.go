package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"fx-signalsv1/internal/gate"
	"fx-signalsv1/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Telegram delivery
	TelegramToken  string
	TelegramChatID string

	// Broker bridge credentials
	BridgeBaseURL    string
	BridgeAPIKey     string
	BridgeClientCode string
	BridgePassword   string
	BridgeTOTPSecret string

	// Risk parameters (shared across symbols)
	AccountBalance float64
	RiskPercent    float64
	Leverage       float64
	MarginPerLot   float64

	// Symbols: comma-separated entries of
	// "display:bridge:pip_increment:pip_value", e.g.
	// "EUR/USD:EURUSD:0.0001:10,XAU/USD:XAUUSD:0.1:10"
	Symbols string

	// Sessions: comma-separated "name=HH:MM-HH:MM" windows in UTC,
	// e.g. "london=07:00-16:00,newyork=12:00-21:00". Empty means
	// always-on.
	Sessions string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	CSVPath       string
	MetricsAddr   string
	LogLevel      string

	// Poll loop
	PollInterval  time.Duration
	CandleCount   int
	FastTimeframe string
	SlowTimeframe string

	// DataMode selects the fast-candle source: "poll" fetches over REST
	// every PollInterval; "stream" seeds over REST once and then keeps
	// the series current from the WebSocket candle stream.
	DataMode string

	// Dedup granularity: "kind_direction" or "kind_direction_price"
	FingerprintMode string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		TelegramToken:  mustEnv("TELEGRAM_TOKEN"),
		TelegramChatID: mustEnv("TELEGRAM_CHAT_ID"),

		BridgeBaseURL:    getEnv("BRIDGE_BASE_URL", "https://api.metabridge.local"),
		BridgeAPIKey:     mustEnv("BRIDGE_API_KEY"),
		BridgeClientCode: mustEnv("BRIDGE_CLIENT_CODE"),
		BridgePassword:   mustEnv("BRIDGE_PASSWORD"),
		BridgeTOTPSecret: mustEnv("BRIDGE_TOTP_SECRET"),

		AccountBalance: getEnvFloat("ACCOUNT_BALANCE", 10000),
		RiskPercent:    getEnvFloat("RISK_PERCENT", 1.0),
		Leverage:       getEnvFloat("LEVERAGE", 100),
		MarginPerLot:   getEnvFloat("MARGIN_PER_LOT", 1100),

		Symbols:  getEnv("SYMBOLS", "EUR/USD:EURUSD:0.0001:10"),
		Sessions: getEnv("SESSIONS", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/alerts.db"),
		CSVPath:       getEnv("CSV_PATH", "data/alerts.csv"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		PollInterval:  getEnvDuration("POLL_INTERVAL", time.Minute),
		CandleCount:   getEnvInt("CANDLE_COUNT", 100),
		FastTimeframe: getEnv("FAST_TIMEFRAME", "5m"),
		SlowTimeframe: getEnv("SLOW_TIMEFRAME", "1h"),

		DataMode: getEnv("DATA_MODE", "poll"),

		FingerprintMode: getEnv("FINGERPRINT_MODE", "kind_direction"),
	}
}

// Instrument is one parsed entry of the SYMBOLS list.
type Instrument struct {
	Symbol       string // display symbol, e.g. "EUR/USD"
	BridgeSymbol string // bridge ticker, e.g. "EURUSD"
	PipIncrement float64
	PipValue     float64
}

// ParseSymbols parses the Symbols string, skipping malformed entries.
func (c *Config) ParseSymbols() []Instrument {
	var out []Instrument
	for _, entry := range strings.Split(c.Symbols, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			log.Printf("[config] skipping malformed symbol entry: %q", entry)
			continue
		}
		pip, err1 := strconv.ParseFloat(parts[2], 64)
		val, err2 := strconv.ParseFloat(parts[3], 64)
		if err1 != nil || err2 != nil || pip <= 0 || val <= 0 {
			log.Printf("[config] skipping symbol with bad pip values: %q", entry)
			continue
		}
		out = append(out, Instrument{
			Symbol:       parts[0],
			BridgeSymbol: parts[1],
			PipIncrement: pip,
			PipValue:     val,
		})
	}
	return out
}

// RiskFor builds the per-symbol risk config from the shared account
// parameters and the instrument's pip table.
func (c *Config) RiskFor(inst Instrument) model.RiskConfig {
	return model.RiskConfig{
		AccountBalance: c.AccountBalance,
		RiskPercent:    c.RiskPercent,
		PipIncrement:   inst.PipIncrement,
		PipValuePerLot: inst.PipValue,
		Leverage:       c.Leverage,
		MarginPerLot:   c.MarginPerLot,
	}
}

// ParseSessions parses the Sessions string into gate windows, skipping
// malformed entries. An empty result means the gate is always open.
func (c *Config) ParseSessions() []gate.SessionWindow {
	var out []gate.SessionWindow
	for _, entry := range strings.Split(c.Sessions, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		w, err := gate.ParseSessionWindow(entry)
		if err != nil {
			log.Printf("[config] skipping malformed session entry %q: %v", entry, err)
			continue
		}
		out = append(out, w)
	}
	return out
}

// ParseFingerprintMode maps the FingerprintMode string to the model
// constant, defaulting to kind+direction.
func (c *Config) ParseFingerprintMode() model.FingerprintMode {
	if c.FingerprintMode == "kind_direction_price" {
		return model.FingerprintKindDirectionPrice
	}
	return model.FingerprintKindDirection
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid duration for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
