package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockai/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeCSV writes a table fixture and returns its path.
func writeCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

// sampleRows builds n schema-complete data rows for a company.
func sampleRows(company string, n int) [][]string {
	header := domain.RequiredColumns()
	rows := make([][]string, n)
	for i := range rows {
		row := make([]string, len(header))
		for j, col := range header {
			switch col {
			case domain.ColCompanyName:
				row[j] = company
			case domain.ColSeries:
				row[j] = "EQ"
			case domain.ColISIN:
				row[j] = "INE000A01001"
			case domain.ColTimestamp:
				row[j] = fmt.Sprintf("2024-04-%02d", i+1)
			default:
				row[j] = fmt.Sprintf("%d.5", (i+1)*(j+1))
			}
		}
		rows[i] = row
	}
	return rows
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "acme.csv", domain.RequiredColumns(), sampleRows("ACME Industries", 3))

	loader := NewLoader(testLogger())
	ds, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ACME Industries", ds.CompanyName)
	assert.Equal(t, path, ds.SourcePath)
	assert.Equal(t, 3, ds.RowCount())
	assert.Equal(t, domain.RequiredColumns(), ds.Header)
}

func TestLoadCSVWithBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "acme.csv", domain.RequiredColumns(), sampleRows("ACME Industries", 2))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, content...), 0644))

	loader := NewLoader(testLogger())
	ds, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ColCompanyName, ds.Header[0])
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acme.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := domain.RequiredColumns()
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &cells))
	for r, row := range sampleRows("ACME Industries", 2) {
		rowCells := make([]interface{}, len(row))
		for i, c := range row {
			rowCells[i] = c
		}
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", r+2), &rowCells))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	loader := NewLoader(testLogger())
	ds, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ACME Industries", ds.CompanyName)
	assert.Equal(t, 2, ds.RowCount())
}

func TestLoadRejectsMissingColumns(t *testing.T) {
	dir := t.TempDir()

	// Header without ISIN; every row of the table is rejected, not just
	// the column.
	var header []string
	for _, col := range domain.RequiredColumns() {
		if col != domain.ColISIN {
			header = append(header, col)
		}
	}
	rows := [][]string{make([]string, len(header))}
	rows[0][0] = "ACME Industries"
	path := writeCSV(t, dir, "acme.csv", header, rows)

	loader := NewLoader(testLogger())
	_, err := loader.Load(path)
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), domain.ColISIN)
}

func TestLoadRejectsEmptyTable(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "acme.csv", domain.RequiredColumns(), nil)

	loader := NewLoader(testLogger())
	_, err := loader.Load(path)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestLoadUnreadableFile(t *testing.T) {
	loader := NewLoader(testLogger())
	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadCompanyNameFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	rows := sampleRows("", 1)
	path := writeCSV(t, dir, "tata-motors.csv", domain.RequiredColumns(), rows)

	loader := NewLoader(testLogger())
	ds, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tata-motors", ds.CompanyName)
}

func TestLoadAllSkipsBadTables(t *testing.T) {
	dir := t.TempDir()
	good1 := writeCSV(t, dir, "alpha.csv", domain.RequiredColumns(), sampleRows("Alpha", 2))
	bad := writeCSV(t, dir, "beta.csv", []string{"CLOSE"}, [][]string{{"10"}})
	good2 := writeCSV(t, dir, "gamma.csv", domain.RequiredColumns(), sampleRows("Gamma", 2))

	loader := NewLoader(testLogger())
	datasets := loader.LoadAll(context.Background(), []string{good1, bad, good2})

	require.Len(t, datasets, 2)
	assert.Equal(t, "Alpha", datasets[0].CompanyName)
	assert.Equal(t, "Gamma", datasets[1].CompanyName)
}

func TestLoadAllHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "alpha.csv", domain.RequiredColumns(), sampleRows("Alpha", 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewLoader(testLogger())
	datasets := loader.LoadAll(ctx, []string{path})
	assert.Empty(t, datasets)
}

func TestDiscoverTables(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"beta.csv", "alpha.xlsx", "notes.txt", "~$beta.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.csv.d"), 0755))

	paths, err := DiscoverTables(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "alpha.xlsx"),
		filepath.Join(dir, "beta.csv"),
	}, paths)
}

func TestDiscoverTablesMissingDir(t *testing.T) {
	_, err := DiscoverTables(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
