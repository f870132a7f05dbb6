package decision

import (
	"errors"
	"math"

	"stockai/internal/preprocess"
	"stockai/pkg/contracts/domain"
)

// DefaultThreshold is the minimum |price change ratio| that triggers a
// Buy or Sell.
const DefaultThreshold = 0.05

// Predictor produces a price forecast from a single feature value.
// *forecast.Forest satisfies it.
type Predictor interface {
	Predict(x float64) float64
}

// ErrNoLatestRow is returned when a frame lacks a usable final row.
var ErrNoLatestRow = errors.New("frame has no usable latest row")

// Engine converts a company's latest feature row and model prediction into
// a Buy/Sell/Hold decision. It is stateless: every run re-evaluates from
// scratch, with no memory of prior decisions and no hysteresis.
type Engine struct {
	threshold float64
}

// NewEngine creates a decision engine. Non-positive thresholds fall back
// to the default.
func NewEngine(threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold}
}

// Decide evaluates the latest row of the frame against the model.
// CurrentPrice is the last scaled CLOSE, FuturePrice the model's prediction
// for the last MA_5.
func (e *Engine) Decide(frame *preprocess.Frame, model Predictor) (domain.Decision, error) {
	current, ok := frame.Last(domain.ColClose)
	if !ok || math.IsNaN(current) {
		return domain.Decision{}, ErrNoLatestRow
	}
	feature, ok := frame.Last(domain.ColMA5)
	if !ok || math.IsNaN(feature) {
		return domain.Decision{}, ErrNoLatestRow
	}

	future := model.Predict(feature)
	return e.Evaluate(frame.Company, current, future), nil
}

// Evaluate is the pure decision function over (CurrentPrice, FuturePrice).
// A zero CurrentPrice would make the change ratio undefined; that case is
// pinned to Hold.
func (e *Engine) Evaluate(company string, current, future float64) domain.Decision {
	d := domain.Decision{
		CompanyName:  company,
		CurrentPrice: current,
		FuturePrice:  future,
		Action:       domain.ActionHold,
	}

	if current == 0 {
		return d
	}

	d.PriceChangeRatio = (future - current) / current
	if math.Abs(d.PriceChangeRatio) >= e.threshold {
		if d.PriceChangeRatio > 0 {
			d.Action = domain.ActionBuy
		} else {
			d.Action = domain.ActionSell
		}
	}
	return d
}
