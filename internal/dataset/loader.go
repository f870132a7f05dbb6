package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockai/internal/infrastructure"
	"stockai/pkg/contracts/domain"
)

// Loader errors. A failure to load one path never aborts the batch; the
// company is skipped and the error is reported.
var (
	// ErrMissingColumns marks a table missing at least one required column.
	ErrMissingColumns = errors.New("table missing required columns")
	// ErrEmptyDataset marks a table with a valid header but zero data rows.
	ErrEmptyDataset = errors.New("table has no data rows")
)

// Loader reads per-company history tables from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to the global one.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Loader{logger: logger}
}

// LoadAll loads every readable, schema-complete table from the given paths.
// Paths that cannot be loaded are logged and skipped; the returned slice
// preserves the order of the accepted paths.
func (l *Loader) LoadAll(ctx context.Context, paths []string) []*domain.CompanyDataset {
	datasets := make([]*domain.CompanyDataset, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			l.logger.Warn("load cancelled", slog.String("error", err.Error()))
			return datasets
		}

		ds, err := l.Load(path)
		if err != nil {
			l.logger.Warn("skipping company table",
				slog.String("path", path),
				slog.String("reason", err.Error()))
			continue
		}

		l.logger.Info("loaded company table",
			slog.String("company", ds.CompanyName),
			slog.String("path", path),
			slog.Int("rows", ds.RowCount()))
		datasets = append(datasets, ds)
	}
	return datasets
}

// Load reads a single company table. Supported formats are CSV and XLSX,
// chosen by file extension.
func (l *Loader) Load(path string) (*domain.CompanyDataset, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, rows, err = readXLSX(path)
	default:
		header, rows, err = readCSV(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", path, err)
	}

	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing %v", ErrMissingColumns, path, missing)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDataset, path)
	}

	ds := &domain.CompanyDataset{
		SourcePath: path,
		Header:     header,
		Rows:       rows,
	}
	ds.CompanyName = companyName(ds)
	return ds, nil
}

// companyName takes the company name from the first data row, falling back
// to the file name when the cell is blank.
func companyName(ds *domain.CompanyDataset) string {
	idx := ds.ColumnIndex(domain.ColCompanyName)
	if idx >= 0 && len(ds.Rows) > 0 && idx < len(ds.Rows[0]) {
		if name := strings.TrimSpace(ds.Rows[0][idx]); name != "" {
			return name
		}
	}
	base := filepath.Base(ds.SourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// missingColumns returns the required columns absent from the header.
func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}

	var missing []string
	for _, col := range domain.RequiredColumns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// readCSV reads a CSV table, tolerating a UTF-8 BOM and ragged rows.
func readCSV(path string) ([]string, [][]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	// Strip BOM so the first header cell matches exactly.
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		content = content[3:]
	}

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}

	header := trimCells(records[0])
	return header, records[1:], nil
}

// readXLSX reads the first sheet of an Excel workbook as a table.
func readXLSX(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := trimCells(records[0])
	return header, records[1:], nil
}

func trimCells(cells []string) []string {
	trimmed := make([]string, len(cells))
	for i, cell := range cells {
		trimmed[i] = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
	}
	return trimmed
}
