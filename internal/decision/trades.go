package decision

import "stockai/pkg/contracts/domain"

// MaterializeTrades projects a decision set onto trade records, dropping
// every Hold. Pure: no side effects beyond the returned slice, which
// preserves the input order.
func MaterializeTrades(decisions []domain.Decision) []domain.TradeRecord {
	trades := make([]domain.TradeRecord, 0, len(decisions))
	for _, d := range decisions {
		if !d.Actionable() {
			continue
		}
		trades = append(trades, domain.TradeRecord{
			CompanyName:      d.CompanyName,
			Action:           d.Action,
			Price:            d.CurrentPrice,
			FuturePrice:      d.FuturePrice,
			PriceChangeRatio: d.PriceChangeRatio,
		})
	}
	return trades
}
