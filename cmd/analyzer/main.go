package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"stockai/internal/config"
	"stockai/internal/dataset"
	"stockai/internal/exporter"
	"stockai/internal/infrastructure"
	"stockai/internal/pipeline"
)

func main() {
	dataDir := flag.String("data", "", "directory of company tables (defaults to data relative to executable)")
	outDir := flag.String("out", "", "directory for result files (defaults to results relative to executable)")
	threshold := flag.Float64("threshold", 0, "price change ratio that triggers Buy/Sell (overrides config)")
	parallel := flag.Int("parallel", 0, "companies analyzed concurrently (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *threshold > 0 {
		cfg.Analysis.Threshold = *threshold
	}
	if *parallel > 0 {
		cfg.Analysis.Parallelism = *parallel
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.ResultsDir = *outDir
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("analyzer.log")
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting stock analysis",
		slog.String("data_dir", paths.DataDir),
		slog.String("results_dir", paths.ResultsDir),
		slog.Float64("threshold", cfg.Analysis.Threshold))

	// Explicit table paths on the command line take precedence over
	// directory discovery.
	tablePaths := flag.Args()
	if len(tablePaths) == 0 {
		tablePaths, err = dataset.DiscoverTables(paths.DataDir)
		if err != nil {
			logger.Error("Failed to discover company tables", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	fmt.Printf("Found %d company tables\n", len(tablePaths))

	runner := pipeline.NewRunner(cfg.Analysis, logger, nil)
	run, err := runner.Run(context.Background(), tablePaths)
	if err != nil {
		logger.Error("Analysis run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Terminal summary for the display collaborator.
	for _, res := range run.Companies {
		d := res.Decision
		fmt.Printf("Company: %s\n", d.CompanyName)
		fmt.Printf("Current Price: %g\n", d.CurrentPrice)
		fmt.Printf("Future Price: %g\n", d.FuturePrice)
		fmt.Printf("Price Change: %g\n", d.PriceChangeRatio)
		fmt.Printf("Decision: %s\n\n", d.Action)
	}
	fmt.Printf("Processing complete: %d companies, %d skipped, %d trades\n",
		len(run.Companies), run.Skipped, len(run.Trades))

	writer := exporter.NewCSVWriter(paths)
	if err := writer.WriteDecisionsCSV(exporter.DecisionsCSVFile, run.Decisions); err != nil {
		logger.Error("Failed to write decisions CSV", slog.String("error", err.Error()))
	}
	if err := writer.WriteTradesCSV(exporter.TradesCSVFile, run.Trades); err != nil {
		logger.Error("Failed to write trades CSV", slog.String("error", err.Error()))
	}
	if err := writer.WriteTradesJSON(exporter.TradesJSONFile, run.Trades); err != nil {
		logger.Error("Failed to write trades JSON", slog.String("error", err.Error()))
	}

	logger.Info("Analysis complete",
		slog.String("run_id", run.RunID),
		slog.Int("companies", len(run.Companies)),
		slog.Int("trades", len(run.Trades)))
}
