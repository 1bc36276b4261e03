package valuation

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
)

// PriceSource provides the current price for a symbol. The boolean is false
// when no price is known; valuation then substitutes the holding's own cost
// basis.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, bool)
}

// HoldingValuation pairs a holding with the price used and its derived
// figures.
type HoldingValuation struct {
	Holding      domain.Holding  `json:"holding"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	PriceKnown   bool            `json:"priceKnown"`
	domain.Valuation
}

// Value computes the figures for one holding given its current price.
// An absent price falls back to the buy price, valuing the position at
// break-even — a missing quote must never render as a total loss.
func Value(h domain.Holding, price decimal.Decimal, known bool) domain.Valuation {
	if !known {
		price = h.BuyPrice
	}
	qty := decimal.NewFromInt(h.Quantity)
	return domain.Derive(qty.Mul(h.BuyPrice), qty.Mul(price))
}

// Sum aggregates valuations by summing investment and current value, then
// deriving profit/loss and its percentage once from the totals. Percentages
// are never averaged across entries; that would weight a one-share position
// the same as a thousand-share one.
func Sum(vals []domain.Valuation) domain.Valuation {
	investment := lo.Reduce(vals, func(acc decimal.Decimal, v domain.Valuation, _ int) decimal.Decimal {
		return acc.Add(v.Investment)
	}, decimal.Zero)

	current := lo.Reduce(vals, func(acc decimal.Decimal, v domain.Valuation, _ int) decimal.Decimal {
		return acc.Add(v.CurrentValue)
	}, decimal.Zero)

	return domain.Derive(investment, current)
}

// Service resolves holdings against a price source. It performs no
// persistence of its own; refreshing observations is the price layer's
// concern, composed by the caller.
type Service struct {
	prices PriceSource
}

// NewService creates a valuation service.
func NewService(prices PriceSource) *Service {
	return &Service{prices: prices}
}

// ValueHoldings values each holding in input order.
func (s *Service) ValueHoldings(ctx context.Context, holdings []domain.Holding) []HoldingValuation {
	out := make([]HoldingValuation, 0, len(holdings))
	for _, h := range holdings {
		price, known := s.prices.GetPrice(ctx, h.Symbol)
		hv := HoldingValuation{
			Holding:    h,
			PriceKnown: known,
			Valuation:  Value(h, price, known),
		}
		if known {
			hv.CurrentPrice = price
		} else {
			hv.CurrentPrice = h.BuyPrice
		}
		out = append(out, hv)
	}
	return out
}

// SumHoldings aggregates a slice of valued holdings.
func SumHoldings(hvs []HoldingValuation) domain.Valuation {
	return Sum(lo.Map(hvs, func(hv HoldingValuation, _ int) domain.Valuation {
		return hv.Valuation
	}))
}
