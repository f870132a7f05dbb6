package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stockai/internal/config"
	"stockai/internal/dataset"
	"stockai/internal/decision"
	"stockai/internal/forecast"
	"stockai/internal/infrastructure"
	"stockai/internal/preprocess"
	"stockai/pkg/contracts/domain"
)

// ErrNoCompanies is the structural failure of a batch: nothing at all
// could be loaded. Per-company failures never surface here.
var ErrNoCompanies = errors.New("no usable company tables in batch")

// CompanyResult pairs everything derived for one company under a single
// owner: dataset, fit statistics, model, diagnostics and decision. Keeping
// them in one struct removes the index drift risk of parallel sequences.
type CompanyResult struct {
	Dataset  *domain.CompanyDataset
	Frame    *preprocess.Frame
	Stats    *preprocess.Stats
	Model    *forecast.Forest
	MSE      float64
	Decision domain.Decision
}

// RunResult is the outcome of one batch run.
type RunResult struct {
	RunID     string
	Started   time.Time
	Duration  time.Duration
	Companies []*CompanyResult
	Decisions map[string]domain.Decision
	Trades    []domain.TradeRecord
	Skipped   int
}

// Runner executes the batch pipeline: load, preprocess, train, evaluate,
// decide, materialize. Companies are fully independent; any failure is
// confined to its company.
type Runner struct {
	cfg     config.AnalysisConfig
	loader  *dataset.Loader
	pre     *preprocess.Preprocessor
	trainer *forecast.Trainer
	engine  *decision.Engine
	metrics *Metrics
	logger  *slog.Logger
}

// NewRunner wires the pipeline stages from configuration. Both logger and
// metrics may be nil.
func NewRunner(cfg config.AnalysisConfig, logger *slog.Logger, metrics *Metrics) *Runner {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	forestCfg := forecast.Config{
		Trees:        cfg.Trees,
		MaxDepth:     cfg.MaxDepth,
		MinLeaf:      1,
		TestFraction: cfg.TestFraction,
		Seed:         cfg.Seed,
	}

	return &Runner{
		cfg:     cfg,
		loader:  dataset.NewLoader(logger),
		pre:     preprocess.NewPreprocessor(cfg.MAWindow, logger),
		trainer: forecast.NewTrainer(forestCfg, logger),
		engine:  decision.NewEngine(cfg.Threshold),
		metrics: metrics,
		logger:  logger,
	}
}

// Run processes every company table in paths. An empty path sequence or a
// batch in which no table loads is a structural, fatal error; everything
// else is per-company and non-fatal.
func (r *Runner) Run(ctx context.Context, paths []string) (*RunResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: empty input path sequence", ErrNoCompanies)
	}

	runID := uuid.NewString()
	ctx = infrastructure.WithRunID(ctx, runID)
	logger := r.logger.With(slog.String("run_id", runID))
	started := time.Now()

	logger.Info("starting analysis run",
		slog.Int("paths", len(paths)),
		slog.Float64("threshold", r.cfg.Threshold),
		slog.Int("parallelism", r.cfg.Parallelism))

	datasets := r.loader.LoadAll(ctx, paths)
	if len(datasets) == 0 {
		return nil, fmt.Errorf("%w: all %d tables were skipped", ErrNoCompanies, len(paths))
	}

	results := r.analyzeAll(ctx, logger, datasets)

	run := &RunResult{
		RunID:     runID,
		Started:   started,
		Decisions: make(map[string]domain.Decision, len(results)),
	}
	var decisions []domain.Decision
	for _, res := range results {
		if res == nil {
			continue
		}
		run.Companies = append(run.Companies, res)
		run.Decisions[res.Dataset.CompanyName] = res.Decision
		decisions = append(decisions, res.Decision)
	}
	run.Trades = decision.MaterializeTrades(decisions)
	run.Skipped = len(paths) - len(run.Companies)
	run.Duration = time.Since(started)

	r.metrics.addProcessed(len(run.Companies))
	r.metrics.addSkipped(run.Skipped)
	r.metrics.addTrades(len(run.Trades))
	r.metrics.observeRun(run.Duration.Seconds())

	logger.Info("analysis run complete",
		slog.Int("companies", len(run.Companies)),
		slog.Int("skipped", run.Skipped),
		slog.Int("trades", len(run.Trades)),
		slog.Duration("duration", run.Duration))
	return run, nil
}

// analyzeAll runs the per-company stages, sequentially or with bounded
// parallelism. Results keep the dataset order either way, and a failed
// company leaves a nil slot that the caller drops.
func (r *Runner) analyzeAll(ctx context.Context, logger *slog.Logger, datasets []*domain.CompanyDataset) []*CompanyResult {
	results := make([]*CompanyResult, len(datasets))

	if r.cfg.Parallelism <= 1 {
		for i, ds := range datasets {
			results[i] = r.analyzeCompany(logger, ds)
		}
		return results
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)
	for i, ds := range datasets {
		g.Go(func() error {
			results[i] = r.analyzeCompany(logger, ds)
			return nil
		})
	}
	// Workers never return errors; isolation is handled per company.
	_ = g.Wait()
	return results
}

// analyzeCompany runs preprocessing through decisioning for one company.
// Returns nil on failure after logging; the rest of the batch is
// unaffected.
func (r *Runner) analyzeCompany(logger *slog.Logger, ds *domain.CompanyDataset) *CompanyResult {
	frame, stats, err := r.pre.Process(ds)
	if err != nil {
		logger.Warn("preprocessing failed, company excluded",
			slog.String("company", ds.CompanyName),
			slog.String("error", err.Error()))
		return nil
	}

	model, err := r.trainer.Train(frame)
	if err != nil {
		logger.Warn("training failed, company excluded",
			slog.String("company", ds.CompanyName),
			slog.String("error", err.Error()))
		return nil
	}

	mse := forecast.Evaluate(model, frame)
	logger.Info("model evaluated",
		slog.String("company", ds.CompanyName),
		slog.Float64("mse", mse))

	dec, err := r.engine.Decide(frame, model)
	if err != nil {
		logger.Warn("decision failed, company excluded",
			slog.String("company", ds.CompanyName),
			slog.String("error", err.Error()))
		return nil
	}

	logger.Info("decision made",
		slog.String("company", ds.CompanyName),
		slog.String("action", string(dec.Action)),
		slog.Float64("current_price", dec.CurrentPrice),
		slog.Float64("future_price", dec.FuturePrice),
		slog.Float64("price_change_ratio", dec.PriceChangeRatio))

	return &CompanyResult{
		Dataset:  ds,
		Frame:    frame,
		Stats:    stats,
		Model:    model,
		MSE:      mse,
		Decision: dec,
	}
}
