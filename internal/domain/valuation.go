package domain

import "github.com/shopspring/decimal"

// Valuation holds the derived profit/loss figures for a holding, an account,
// or a whole portfolio. It is always computed from holdings plus the latest
// price observations and never stored.
type Valuation struct {
	Investment    decimal.Decimal `json:"investment"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
	ProfitLossPct decimal.Decimal `json:"profitLossPct"`
}

// Derive completes a valuation from its investment and current value,
// computing profit/loss and its percentage. The percentage is zero when the
// investment is zero.
func Derive(investment, currentValue decimal.Decimal) Valuation {
	pl := currentValue.Sub(investment)
	pct := decimal.Zero
	if !investment.IsZero() {
		pct = pl.Div(investment).Mul(decimal.NewFromInt(100))
	}
	return Valuation{
		Investment:    investment,
		CurrentValue:  currentValue,
		ProfitLoss:    pl,
		ProfitLossPct: pct,
	}
}
