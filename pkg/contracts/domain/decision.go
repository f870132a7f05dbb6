package domain

// Action is the tri-state outcome of evaluating a company's model output.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
	ActionHold Action = "Hold"
)

// Decision is the model verdict for one company. Prices are on the
// normalized [0,1] scale produced by preprocessing, not currency.
type Decision struct {
	CompanyName      string  `json:"company_name"`
	CurrentPrice     float64 `json:"current_price"`
	FuturePrice      float64 `json:"future_price"`
	PriceChangeRatio float64 `json:"price_change_ratio"`
	Action           Action  `json:"action"`
}

// Actionable reports whether the decision calls for a trade.
func (d Decision) Actionable() bool {
	return d.Action == ActionBuy || d.Action == ActionSell
}

// TradeRecord is the projection of an actionable Decision. Hold decisions
// never materialize into trade records.
type TradeRecord struct {
	CompanyName      string  `json:"company_name"`
	Action           Action  `json:"action"`
	Price            float64 `json:"price"`
	FuturePrice      float64 `json:"future_price"`
	PriceChangeRatio float64 `json:"price_change_ratio"`
}
