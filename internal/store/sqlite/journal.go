// Package sqlite persists every forwarded alert to a local SQLite journal
// so alert history survives restarts and can be inspected offline.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"fx-signalsv1/internal/engine"

	_ "github.com/mattn/go-sqlite3"
)

// JournalConfig configures the SQLite journal.
type JournalConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/alerts.db"
}

// Journal is a single-writer SQLite store for forwarded alerts. It
// implements engine.Sink.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens the journal, initializes WAL mode and the schema.
func New(cfg JournalConfig) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer: alerts arrive sequentially from the poll loop.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS alerts (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			ts              INTEGER NOT NULL,
			symbol          TEXT    NOT NULL,
			session         TEXT,
			kind            TEXT,
			direction       TEXT,
			entry           REAL,
			stop_loss       REAL,
			take_profit     REAL,
			current_price   REAL,
			lot_size        REAL,
			profit_distance REAL,
			loss_distance   REAL,
			note            TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_symbol_ts ON alerts (symbol, ts);
	`)
	return err
}

// Accept inserts one alert row. Session notices are stored with NULL
// signal columns and a non-empty note.
func (j *Journal) Accept(ctx context.Context, a engine.Alert) error {
	var kind, direction sql.NullString
	var entry, stop, target, lot, profit, loss sql.NullFloat64

	if a.Signal != nil && a.Setup != nil {
		kind = sql.NullString{String: string(a.Signal.Kind), Valid: true}
		direction = sql.NullString{String: string(a.Signal.Direction), Valid: true}
		entry = sql.NullFloat64{Float64: a.Setup.EntryPrice, Valid: true}
		stop = sql.NullFloat64{Float64: a.Setup.StopPrice, Valid: true}
		target = sql.NullFloat64{Float64: a.Setup.TargetPrice, Valid: true}
		lot = sql.NullFloat64{Float64: a.Setup.LotSize, Valid: true}
		profit = sql.NullFloat64{Float64: a.Setup.ProfitDistance, Valid: true}
		loss = sql.NullFloat64{Float64: a.Setup.LossDistance, Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO alerts (ts, symbol, session, kind, direction, entry, stop_loss, take_profit, current_price, lot_size, profit_distance, loss_distance, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.At.Unix(), a.Symbol, a.Session, kind, direction, entry, stop, target, a.Price, lot, profit, loss, a.Note)
	if err != nil {
		return fmt.Errorf("sqlite insert alert: %w", err)
	}
	return nil
}

// AlertCount returns the number of journaled alerts for a symbol.
// Useful for health checks and tests.
func (j *Journal) AlertCount(ctx context.Context, symbol string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE symbol = ?`, symbol,
	).Scan(&n)
	return n, err
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
