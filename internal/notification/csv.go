package notification

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"fx-signalsv1/internal/engine"
)

var csvHeader = []string{
	"timestamp", "symbol", "session", "signal", "direction",
	"entry", "stop_loss", "take_profit", "current_price",
	"lot_size", "profit_distance", "loss_distance", "note",
}

// CSVSink appends forwarded alerts to a CSV journal on disk. The header is
// written once when the file is created; subsequent runs append.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

// NewCSVSink opens (or creates) the journal at path. The file itself is
// opened per append so external rotation does not break the sink.
func NewCSVSink(path string) (*CSVSink, error) {
	s := &CSVSink{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.append(csvHeader); err != nil {
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVSink) Accept(_ context.Context, a engine.Alert) error {
	row := []string{
		a.At.UTC().Format("2006-01-02 15:04:05"),
		a.Symbol,
		a.Session,
		"", "", "", "", "",
		fmt.Sprintf("%.5f", a.Price),
		"", "", "",
		a.Note,
	}
	if a.Signal != nil && a.Setup != nil {
		row[3] = string(a.Signal.Kind)
		row[4] = string(a.Signal.Direction)
		row[5] = fmt.Sprintf("%.5f", a.Setup.EntryPrice)
		row[6] = fmt.Sprintf("%.5f", a.Setup.StopPrice)
		row[7] = fmt.Sprintf("%.5f", a.Setup.TargetPrice)
		row[9] = fmt.Sprintf("%.2f", a.Setup.LotSize)
		row[10] = fmt.Sprintf("%.5f", a.Setup.ProfitDistance)
		row[11] = fmt.Sprintf("%.5f", a.Setup.LossDistance)
	}
	if err := s.append(row); err != nil {
		return fmt.Errorf("csv: append: %w", err)
	}
	return nil
}

func (s *CSVSink) append(row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
