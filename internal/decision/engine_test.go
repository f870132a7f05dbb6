package decision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockai/internal/preprocess"
	"stockai/pkg/contracts/domain"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		current   float64
		future    float64
		wantRatio float64
		want      domain.Action
	}{
		{"rise above threshold", 100, 106, 0.06, domain.ActionBuy},
		{"rise exactly at threshold", 100, 105, 0.05, domain.ActionBuy},
		{"rise below threshold", 100, 103, 0.03, domain.ActionHold},
		{"fall below threshold", 100, 97, -0.03, domain.ActionHold},
		{"fall beyond threshold", 100, 94, -0.06, domain.ActionSell},
		{"fall exactly at threshold", 100, 95, -0.05, domain.ActionSell},
		{"no change", 100, 100, 0, domain.ActionHold},
		{"zero current price", 0, 10, 0, domain.ActionHold},
	}

	engine := NewEngine(0.05)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Evaluate("ACME Industries", tt.current, tt.future)
			assert.Equal(t, tt.want, d.Action)
			assert.InDelta(t, tt.wantRatio, d.PriceChangeRatio, 1e-9)
			assert.Equal(t, tt.current, d.CurrentPrice)
			assert.Equal(t, tt.future, d.FuturePrice)
			assert.Equal(t, "ACME Industries", d.CompanyName)
		})
	}
}

func TestEvaluateIsStateless(t *testing.T) {
	engine := NewEngine(0.05)

	first := engine.Evaluate("ACME Industries", 100, 106)
	engine.Evaluate("ACME Industries", 100, 50)
	again := engine.Evaluate("ACME Industries", 100, 106)

	// A prior Sell-grade evaluation must not bleed into the next call.
	assert.Equal(t, first, again)
}

func TestNewEngineDefaultsThreshold(t *testing.T) {
	engine := NewEngine(0)
	d := engine.Evaluate("ACME Industries", 100, 104)
	assert.Equal(t, domain.ActionHold, d.Action)

	d = engine.Evaluate("ACME Industries", 100, 106)
	assert.Equal(t, domain.ActionBuy, d.Action)
}

// constantPredictor always forecasts the same price.
type constantPredictor float64

func (c constantPredictor) Predict(float64) float64 { return float64(c) }

func TestDecideUsesLatestRow(t *testing.T) {
	frame := preprocess.NewFrame("ACME Industries")
	frame.SetColumn(domain.ColClose, []float64{0.2, 0.4, 0.5})
	frame.SetColumn(domain.ColMA5, []float64{math.NaN(), 0.3, 0.4})

	engine := NewEngine(0.05)
	d, err := engine.Decide(frame, constantPredictor(0.55))
	require.NoError(t, err)

	assert.Equal(t, 0.5, d.CurrentPrice)
	assert.Equal(t, 0.55, d.FuturePrice)
	assert.Equal(t, domain.ActionBuy, d.Action)
}

func TestDecideFailsOnUndefinedLatestRow(t *testing.T) {
	engine := NewEngine(0.05)

	frame := preprocess.NewFrame("ACME Industries")
	frame.SetColumn(domain.ColClose, []float64{0.2, math.NaN()})
	frame.SetColumn(domain.ColMA5, []float64{0.3, 0.4})
	_, err := engine.Decide(frame, constantPredictor(0.5))
	assert.ErrorIs(t, err, ErrNoLatestRow)

	frame = preprocess.NewFrame("ACME Industries")
	frame.SetColumn(domain.ColClose, []float64{0.2, 0.4})
	frame.SetColumn(domain.ColMA5, []float64{0.3, math.NaN()})
	_, err = engine.Decide(frame, constantPredictor(0.5))
	assert.ErrorIs(t, err, ErrNoLatestRow)

	_, err = engine.Decide(preprocess.NewFrame("ACME Industries"), constantPredictor(0.5))
	assert.ErrorIs(t, err, ErrNoLatestRow)
}

func TestMaterializeTrades(t *testing.T) {
	decisions := []domain.Decision{
		{CompanyName: "Alpha", Action: domain.ActionBuy, CurrentPrice: 0.5, FuturePrice: 0.6, PriceChangeRatio: 0.2},
		{CompanyName: "Beta", Action: domain.ActionHold, CurrentPrice: 0.5, FuturePrice: 0.51, PriceChangeRatio: 0.02},
		{CompanyName: "Gamma", Action: domain.ActionSell, CurrentPrice: 0.5, FuturePrice: 0.4, PriceChangeRatio: -0.2},
	}

	trades := MaterializeTrades(decisions)
	require.Len(t, trades, 2)
	assert.Equal(t, "Alpha", trades[0].CompanyName)
	assert.Equal(t, domain.ActionBuy, trades[0].Action)
	assert.Equal(t, "Gamma", trades[1].CompanyName)
	assert.Equal(t, domain.ActionSell, trades[1].Action)

	// The source decisions stay untouched; Holds are simply not projected.
	assert.Equal(t, domain.ActionHold, decisions[1].Action)
}

func TestMaterializeTradesEmpty(t *testing.T) {
	assert.Empty(t, MaterializeTrades(nil))
	assert.Empty(t, MaterializeTrades([]domain.Decision{{Action: domain.ActionHold}}))
}
