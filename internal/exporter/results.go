package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"stockai/pkg/contracts/domain"
)

// Well-known result file names inside the results directory.
const (
	DecisionsCSVFile = "decisions.csv"
	TradesCSVFile    = "trades.csv"
	TradesJSONFile   = "trades.json"
)

// WriteDecisionsCSV writes the full decision set, Hold included, sorted by
// company name for a stable file across reruns of identical input.
func (w *CSVWriter) WriteDecisionsCSV(filePath string, decisions map[string]domain.Decision) error {
	names := make([]string, 0, len(decisions))
	for name := range decisions {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([][]string, 0, len(names))
	for _, name := range names {
		d := decisions[name]
		records = append(records, []string{
			name,
			formatFloat(d.CurrentPrice),
			formatFloat(d.FuturePrice),
			formatFloat(d.PriceChangeRatio),
			string(d.Action),
		})
	}

	return w.WriteSimpleCSV(filePath, []string{
		"CompanyName", "CurrentPrice", "FuturePrice", "PriceChangeRatio", "Decision",
	}, records)
}

// WriteTradesCSV writes the actionable trade records in decision order.
func (w *CSVWriter) WriteTradesCSV(filePath string, trades []domain.TradeRecord) error {
	records := make([][]string, 0, len(trades))
	for _, t := range trades {
		records = append(records, []string{
			t.CompanyName,
			string(t.Action),
			formatFloat(t.Price),
			formatFloat(t.FuturePrice),
			formatFloat(t.PriceChangeRatio),
		})
	}

	return w.WriteSimpleCSV(filePath, []string{
		"CompanyName", "Action", "Price", "FuturePrice", "PriceChangeRatio",
	}, records)
}

// WriteTradesJSON writes the trade records as JSON for the display
// collaborator. The payload carries no timestamp, so reruns over identical
// input produce a byte-identical file, same as the CSV outputs.
func (w *CSVWriter) WriteTradesJSON(filePath string, trades []domain.TradeRecord) error {
	fullPath := w.resolvePath(filePath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	payload := map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
