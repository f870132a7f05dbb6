package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config holds the ensemble hyperparameters. The seed fixes both the
// train/test shuffle and the per-tree bootstrap draws, so training over
// identical input always yields an identical model.
type Config struct {
	Trees        int
	MaxDepth     int
	MinLeaf      int
	TestFraction float64
	Seed         int64
}

// DefaultConfig returns the standard hyperparameters.
func DefaultConfig() Config {
	return Config{
		Trees:        100,
		MaxDepth:     10,
		MinLeaf:      1,
		TestFraction: 0.2,
		Seed:         42,
	}
}

// Forest is a bootstrap ensemble of regression trees over a single scalar
// feature. One forest is fitted per company and never shared.
type Forest struct {
	trees []*node
}

// node is one regression tree node. Leaves carry the mean target of their
// training samples.
type node struct {
	threshold float64
	left      *node
	right     *node
	value     float64
	leaf      bool
}

// Fit trains a forest mapping xs to ys. Inputs must be equal-length,
// non-empty and free of NaN.
func Fit(xs, ys []float64, cfg Config) (*Forest, error) {
	if len(xs) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("feature/target length mismatch: %d vs %d", len(xs), len(ys))
	}
	if cfg.Trees < 1 {
		return nil, errors.New("ensemble size must be positive")
	}
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trees := make([]*node, cfg.Trees)
	for t := range trees {
		bx, by := bootstrap(xs, ys, rng)
		sortByFeature(bx, by)
		trees[t] = grow(bx, by, 0, cfg.MaxDepth, cfg.MinLeaf)
	}
	return &Forest{trees: trees}, nil
}

// Predict returns the ensemble mean prediction for a single feature value.
func (f *Forest) Predict(x float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

func (n *node) predict(x float64) float64 {
	for !n.leaf {
		if x <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// bootstrap draws n samples with replacement.
func bootstrap(xs, ys []float64, rng *rand.Rand) ([]float64, []float64) {
	n := len(xs)
	bx := make([]float64, n)
	by := make([]float64, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		bx[i] = xs[j]
		by[i] = ys[j]
	}
	return bx, by
}

// grow builds a tree over samples sorted by feature value.
func grow(xs, ys []float64, depth, maxDepth, minLeaf int) *node {
	if depth >= maxDepth || len(xs) <= minLeaf || xs[0] == xs[len(xs)-1] {
		return &node{leaf: true, value: mean(ys)}
	}

	split, threshold, ok := bestSplit(xs, ys, minLeaf)
	if !ok {
		return &node{leaf: true, value: mean(ys)}
	}

	return &node{
		threshold: threshold,
		left:      grow(xs[:split], ys[:split], depth+1, maxDepth, minLeaf),
		right:     grow(xs[split:], ys[split:], depth+1, maxDepth, minLeaf),
	}
}

// bestSplit scans every boundary between distinct feature values and picks
// the one minimizing the summed squared error of the two sides. Returns
// ok=false when no legal split exists.
func bestSplit(xs, ys []float64, minLeaf int) (int, float64, bool) {
	n := len(ys)

	suffix := 0.0
	suffixSq := 0.0
	for _, y := range ys {
		suffix += y
		suffixSq += y * y
	}

	prefix := 0.0
	prefixSq := 0.0
	bestScore := math.Inf(1)
	bestIdx := -1

	for i := 1; i < n; i++ {
		prefix += ys[i-1]
		prefixSq += ys[i-1] * ys[i-1]

		if xs[i] == xs[i-1] || i < minLeaf || n-i < minLeaf {
			continue
		}

		leftN := float64(i)
		rightN := float64(n - i)
		rightSum := suffix - prefix
		rightSq := suffixSq - prefixSq

		// SSE = sum(y^2) - (sum(y))^2 / n, per side.
		score := (prefixSq - prefix*prefix/leftN) + (rightSq - rightSum*rightSum/rightN)
		if score < bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, (xs[bestIdx-1] + xs[bestIdx]) / 2, true
}

// sortByFeature sorts the paired samples by feature value in place.
func sortByFeature(xs, ys []float64) {
	sort.Sort(&pairedSamples{xs: xs, ys: ys})
}

type pairedSamples struct {
	xs, ys []float64
}

func (p *pairedSamples) Len() int           { return len(p.xs) }
func (p *pairedSamples) Less(i, j int) bool { return p.xs[i] < p.xs[j] }
func (p *pairedSamples) Swap(i, j int) {
	p.xs[i], p.xs[j] = p.xs[j], p.xs[i]
	p.ys[i], p.ys[j] = p.ys[j], p.ys[i]
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
