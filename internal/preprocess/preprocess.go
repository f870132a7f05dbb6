package preprocess

import (
	"log/slog"
	"math"
	"sort"

	"stockai/internal/infrastructure"
	"stockai/pkg/contracts/domain"
)

// Stats holds the company-scoped fit statistics of one preprocessing run.
// They are ephemeral values, never shared across companies, so parallel
// runs cannot interfere.
type Stats struct {
	Company         string
	Medians         map[string]float64
	Imputed         map[string]int
	Encodings       map[string]map[string]int
	ScaleMin        map[string]float64
	ScaleMax        map[string]float64
	ClipLow         map[string]float64
	ClipHigh        map[string]float64
	ConstantColumns []string
}

// Preprocessor derives the feature table of a company dataset. Steps run
// in a fixed order: imputation, categorical encoding, moving-average
// derivation, min-max scaling, IQR clipping.
type Preprocessor struct {
	maWindow int
	logger   *slog.Logger
}

// NewPreprocessor creates a preprocessor with the given moving-average
// window. A nil logger falls back to the global one.
func NewPreprocessor(maWindow int, logger *slog.Logger) *Preprocessor {
	if maWindow < 2 {
		maWindow = 5
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Preprocessor{maWindow: maWindow, logger: logger}
}

// Process converts a raw dataset into a scaled feature frame plus the fit
// statistics used along the way. All statistics are computed over this
// company's rows only.
func (p *Preprocessor) Process(ds *domain.CompanyDataset) (*Frame, *Stats, error) {
	columns, err := parseColumns(ds)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{
		Company:   ds.CompanyName,
		Medians:   make(map[string]float64),
		Imputed:   make(map[string]int),
		Encodings: make(map[string]map[string]int),
		ScaleMin:  make(map[string]float64),
		ScaleMax:  make(map[string]float64),
		ClipLow:   make(map[string]float64),
		ClipHigh:  make(map[string]float64),
	}

	frame := NewFrame(ds.CompanyName)
	for _, col := range columns {
		if col.categorical {
			frame.SetColumn(col.name, p.encode(col, stats))
		} else {
			frame.SetColumn(col.name, p.impute(col, stats))
		}
	}

	// The moving average is derived from the imputed, pre-scale CLOSE
	// values. Its head stays NaN and is never re-imputed; the trainer
	// excludes those rows.
	frame.SetColumn(domain.ColMA5, movingAverage(frame.Column(domain.ColClose), p.maWindow))

	for _, name := range frame.Columns {
		p.scale(frame, name, stats)
	}
	for _, name := range frame.Columns {
		p.clip(frame, name, stats)
	}

	return frame, stats, nil
}

// impute replaces missing values of a numeric column with the column
// median and records how many cells were filled.
func (p *Preprocessor) impute(col rawColumn, stats *Stats) []float64 {
	med := median(col.values)
	stats.Medians[col.name] = med

	values := make([]float64, len(col.values))
	filled := 0
	for i, v := range col.values {
		if math.IsNaN(v) && !math.IsNaN(med) {
			values[i] = med
			filled++
			continue
		}
		values[i] = v
	}

	if filled > 0 {
		stats.Imputed[col.name] = filled
		p.logger.Info("imputed missing values",
			slog.String("company", stats.Company),
			slog.String("column", col.name),
			slog.Int("count", filled),
			slog.Float64("median", med))
	}
	return values
}

// encode maps a categorical column to integer codes. Distinct values are
// assigned codes in sorted order, so a run over identical input always
// produces the same codes. The codes carry equality semantics only.
func (p *Preprocessor) encode(col rawColumn, stats *Stats) []float64 {
	distinct := make(map[string]struct{}, len(col.raw))
	for _, v := range col.raw {
		distinct[v] = struct{}{}
	}

	classes := make([]string, 0, len(distinct))
	for v := range distinct {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	codes := make(map[string]int, len(classes))
	for i, class := range classes {
		codes[class] = i
	}
	stats.Encodings[col.name] = codes

	values := make([]float64, len(col.raw))
	for i, v := range col.raw {
		values[i] = float64(codes[v])
	}
	return values
}

// scale min-max normalizes a column into [0,1] over this company's rows.
// A constant column would divide by zero; it maps to 0 instead, and the
// degenerate case is recorded for diagnostics.
func (p *Preprocessor) scale(frame *Frame, name string, stats *Stats) {
	values := frame.Column(name)
	lo, hi := minMax(values)
	stats.ScaleMin[name] = lo
	stats.ScaleMax[name] = hi

	scaled := make([]float64, len(values))
	if math.IsNaN(lo) || lo == hi {
		// Degenerate scale: map every defined value to 0.
		stats.ConstantColumns = append(stats.ConstantColumns, name)
		p.logger.Warn("constant column, scaling to zero",
			slog.String("company", stats.Company),
			slog.String("column", name))
		for i, v := range values {
			if math.IsNaN(v) {
				scaled[i] = v
			} else {
				scaled[i] = 0
			}
		}
		frame.SetColumn(name, scaled)
		return
	}

	for i, v := range values {
		if math.IsNaN(v) {
			scaled[i] = v
		} else {
			scaled[i] = (v - lo) / (hi - lo)
		}
	}
	frame.SetColumn(name, scaled)
}

// clip bounds a column to its IQR fence. The fence is computed from the
// already-scaled distribution, so bounds may legitimately fall outside
// [0,1] for skewed columns.
func (p *Preprocessor) clip(frame *Frame, name string, stats *Stats) {
	values := frame.Column(name)
	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	if math.IsNaN(q1) || math.IsNaN(q3) {
		stats.ClipLow[name] = math.NaN()
		stats.ClipHigh[name] = math.NaN()
		return
	}

	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr
	stats.ClipLow[name] = lo
	stats.ClipHigh[name] = hi

	clipped := make([]float64, len(values))
	for i, v := range values {
		clipped[i] = clamp(v, lo, hi)
	}
	frame.SetColumn(name, clipped)
}

// movingAverage computes the trailing simple moving average over the given
// window. The first window-1 positions have no full window and stay NaN.
func movingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
