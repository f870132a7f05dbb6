package forecast

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"

	"stockai/internal/infrastructure"
	"stockai/internal/preprocess"
	"stockai/pkg/contracts/domain"
)

// ErrNoSamples is returned when a frame has no rows with a defined
// moving-average feature.
var ErrNoSamples = errors.New("no usable training samples")

// Trainer fits one forest per company frame, feature MA_5 against target
// CLOSE, on a deterministic train/test split.
type Trainer struct {
	cfg    Config
	logger *slog.Logger
}

// NewTrainer creates a trainer. A nil logger falls back to the global one.
func NewTrainer(cfg Config, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Trainer{cfg: cfg, logger: logger}
}

// Train extracts the usable samples from the frame, holds out the test
// fraction, and fits the ensemble on the training partition.
func (t *Trainer) Train(frame *preprocess.Frame) (*Forest, error) {
	xs, ys := Samples(frame)
	if len(xs) == 0 {
		return nil, ErrNoSamples
	}

	trainIdx, _ := SplitIndices(len(xs), t.cfg.TestFraction, t.cfg.Seed)

	trainX := make([]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = xs[idx]
		trainY[i] = ys[idx]
	}

	forest, err := Fit(trainX, trainY, t.cfg)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("model trained",
		slog.String("company", frame.Company),
		slog.Int("samples", len(xs)),
		slog.Int("train_samples", len(trainX)),
		slog.Int("trees", t.cfg.Trees))
	return forest, nil
}

// Samples collects the (MA_5, CLOSE) pairs of every row whose feature is
// defined. The first rows of a series carry no full moving-average window
// and are excluded here rather than imputed.
func Samples(frame *preprocess.Frame) ([]float64, []float64) {
	features := frame.Column(domain.ColMA5)
	targets := frame.Column(domain.ColClose)

	xs := make([]float64, 0, len(features))
	ys := make([]float64, 0, len(features))
	for i, x := range features {
		if math.IsNaN(x) || math.IsNaN(targets[i]) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, targets[i])
	}
	return xs, ys
}

// SplitIndices deterministically shuffles [0, n) with the given seed and
// splits it into train and test index sets. The test set holds
// ceil(n * testFraction) entries, capped so at least one sample trains.
func SplitIndices(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}

	return perm[nTest:], perm[:nTest]
}
