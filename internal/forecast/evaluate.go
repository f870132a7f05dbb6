package forecast

import (
	"math"

	"stockai/internal/preprocess"
)

// Evaluate computes the mean squared error of the forest's predictions over
// every usable row of the frame. Purely diagnostic: it mutates neither the
// frame nor the model. Returns NaN when the frame has no usable rows.
func Evaluate(forest *Forest, frame *preprocess.Frame) float64 {
	xs, ys := Samples(frame)
	return MeanSquaredError(forest, xs, ys)
}

// MeanSquaredError computes the MSE of predictions against actual targets.
func MeanSquaredError(forest *Forest, xs, ys []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	sum := 0.0
	for i, x := range xs {
		diff := forest.Predict(x) - ys[i]
		sum += diff * diff
	}
	return sum / float64(len(xs))
}
