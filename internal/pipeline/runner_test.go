package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockai/internal/config"
	"stockai/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.AnalysisConfig {
	cfg := config.Default().Analysis
	cfg.Trees = 25
	return cfg
}

// writeCompanyCSV writes a schema-complete table whose CLOSE column follows
// the given series.
func writeCompanyCSV(t *testing.T, dir, name, company string, closes []float64) string {
	t.Helper()

	header := domain.RequiredColumns()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	for i, c := range closes {
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
				row[j] = fmt.Sprintf("2024-%02d-%02d", i/28+1, i%28+1)
			case domain.ColClose:
				row[j] = fmt.Sprintf("%g", c)
			default:
				row[j] = fmt.Sprintf("%g", c+float64(j))
			}
		}
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

// wavyCloses builds a varied but reproducible price series.
func wavyCloses(n int, base float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = base + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	return closes
}

func TestRunEmptyInputIsFatal(t *testing.T) {
	runner := NewRunner(testConfig(), testLogger(), nil)
	_, err := runner.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCompanies)
}

func TestRunAllTablesSkippedIsFatal(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("CLOSE\n10\n"), 0644))

	runner := NewRunner(testConfig(), testLogger(), nil)
	_, err := runner.Run(context.Background(), []string{bad})
	assert.ErrorIs(t, err, ErrNoCompanies)
}

func TestRunPartialFailureContinues(t *testing.T) {
	dir := t.TempDir()
	good := writeCompanyCSV(t, dir, "alpha.csv", "Alpha", wavyCloses(40, 100))
	bad := filepath.Join(dir, "beta.csv")
	require.NoError(t, os.WriteFile(bad, []byte("CLOSE,OPEN\n10,11\n"), 0644))

	runner := NewRunner(testConfig(), testLogger(), nil)
	run, err := runner.Run(context.Background(), []string{good, bad})
	require.NoError(t, err)

	require.Len(t, run.Companies, 1)
	assert.Equal(t, 1, run.Skipped)
	assert.Contains(t, run.Decisions, "Alpha")
	assert.NotContains(t, run.Decisions, "Beta")
}

func TestRunIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeCompanyCSV(t, dir, "alpha.csv", "Alpha", wavyCloses(40, 100)),
		writeCompanyCSV(t, dir, "beta.csv", "Beta", wavyCloses(40, 500)),
	}

	runner := NewRunner(testConfig(), testLogger(), nil)
	first, err := runner.Run(context.Background(), paths)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, first.Decisions, second.Decisions)
	assert.Equal(t, first.Trades, second.Trades)
	for i := range first.Companies {
		assert.Equal(t, first.Companies[i].MSE, second.Companies[i].MSE)
	}
}

func TestRunCompaniesAreIsolated(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	alpha := writeCompanyCSV(t, dirA, "alpha.csv", "Alpha", wavyCloses(40, 100))

	betaOld := writeCompanyCSV(t, dirB, "beta.csv", "Beta", wavyCloses(40, 500))
	runner := NewRunner(testConfig(), testLogger(), nil)
	before, err := runner.Run(context.Background(), []string{alpha, betaOld})
	require.NoError(t, err)

	// Rewriting Beta's history must not move Alpha's verdict at all.
	betaNew := writeCompanyCSV(t, dirB, "beta.csv", "Beta", wavyCloses(60, 42))
	after, err := runner.Run(context.Background(), []string{alpha, betaNew})
	require.NoError(t, err)

	assert.Equal(t, before.Decisions["Alpha"], after.Decisions["Alpha"])
}

func TestRunParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeCompanyCSV(t, dir, "alpha.csv", "Alpha", wavyCloses(40, 100)),
		writeCompanyCSV(t, dir, "beta.csv", "Beta", wavyCloses(45, 500)),
		writeCompanyCSV(t, dir, "gamma.csv", "Gamma", wavyCloses(50, 80)),
	}

	seqCfg := testConfig()
	seqCfg.Parallelism = 1
	seq, err := NewRunner(seqCfg, testLogger(), nil).Run(context.Background(), paths)
	require.NoError(t, err)

	parCfg := testConfig()
	parCfg.Parallelism = 4
	par, err := NewRunner(parCfg, testLogger(), nil).Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, seq.Decisions, par.Decisions)
	assert.Equal(t, seq.Trades, par.Trades)

	// Order of results follows the input paths regardless of scheduling.
	for i, res := range par.Companies {
		assert.Equal(t, seq.Companies[i].Dataset.CompanyName, res.Dataset.CompanyName)
	}
}

func TestRunUpdatesMetrics(t *testing.T) {
	dir := t.TempDir()
	good := writeCompanyCSV(t, dir, "alpha.csv", "Alpha", wavyCloses(40, 100))
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("CLOSE\n10\n"), 0644))

	metrics := NewMetrics(prometheus.NewRegistry())
	runner := NewRunner(testConfig(), testLogger(), metrics)
	_, err := runner.Run(context.Background(), []string{good, bad})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.companiesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.companiesSkipped))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.addProcessed(1)
	m.addSkipped(1)
	m.addTrades(1)
	m.observeRun(0.5)
}
