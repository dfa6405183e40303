package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fx-signalsv1/internal/engine"
	"fx-signalsv1/internal/model"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(JournalConfig{DBPath: filepath.Join(t.TempDir(), "alerts.db")})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_InsertAndCount(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	a := engine.Alert{
		Symbol:  "EUR/USD",
		At:      ts,
		Session: "london",
		Signal: &model.Signal{
			Kind:      model.KindBreakout,
			Direction: model.Bullish,
			AnchorTS:  ts,
			Price:     1.105,
		},
		Setup: &model.TradeSetup{
			Direction:   model.Long,
			EntryPrice:  1.105,
			StopPrice:   1.104,
			TargetPrice: 1.107,
			LotSize:     0.5,
		},
		Price: 1.105,
	}
	if err := j.Accept(ctx, a); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := j.Accept(ctx, a); err != nil {
		t.Fatalf("Accept second: %v", err)
	}

	n, err := j.AlertCount(ctx, "EUR/USD")
	if err != nil {
		t.Fatalf("AlertCount: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if n, _ := j.AlertCount(ctx, "XAU/USD"); n != 0 {
		t.Errorf("other symbol count = %d, want 0", n)
	}
}

func TestJournal_SessionNotice_NullSignalColumns(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	notice := engine.Alert{
		Symbol: "EUR/USD",
		At:     time.Now().UTC(),
		Price:  1.1,
		Note:   "session london started",
	}
	if err := j.Accept(ctx, notice); err != nil {
		t.Fatalf("Accept notice: %v", err)
	}

	var kind any
	err := j.DB().QueryRow(`SELECT kind FROM alerts LIMIT 1`).Scan(&kind)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if kind != nil {
		t.Errorf("kind = %v, want NULL for a notice", kind)
	}
}
