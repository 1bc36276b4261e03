package valuation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
)

func holding(symbol string, qty int64, buyPrice string) domain.Holding {
	return domain.Holding{
		Symbol:   symbol,
		Quantity: qty,
		BuyPrice: decimal.RequireFromString(buyPrice),
	}
}

func TestValueProfitScenario(t *testing.T) {
	// 10 shares bought at 100, now trading at 120.
	v := Value(holding("TCS", 10, "100"), decimal.NewFromInt(120), true)

	if !v.Investment.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Investment = %s, want 1000", v.Investment)
	}
	if !v.CurrentValue.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("CurrentValue = %s, want 1200", v.CurrentValue)
	}
	if !v.ProfitLoss.Equal(decimal.NewFromInt(200)) {
		t.Errorf("ProfitLoss = %s, want 200", v.ProfitLoss)
	}
	if !v.ProfitLossPct.Equal(decimal.NewFromInt(20)) {
		t.Errorf("ProfitLossPct = %s, want 20", v.ProfitLossPct)
	}
}

func TestValueAbsentPriceBreaksEven(t *testing.T) {
	v := Value(holding("DELISTED", 5, "80"), decimal.Zero, false)

	if !v.Investment.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Investment = %s, want 400", v.Investment)
	}
	if !v.CurrentValue.Equal(decimal.NewFromInt(400)) {
		t.Errorf("CurrentValue = %s, want 400 (cost basis substitution)", v.CurrentValue)
	}
	if !v.ProfitLoss.IsZero() {
		t.Errorf("ProfitLoss = %s, want 0", v.ProfitLoss)
	}
}

func TestValueZeroInvestment(t *testing.T) {
	v := Value(holding("FREE", 0, "100"), decimal.NewFromInt(50), true)

	if !v.ProfitLossPct.IsZero() {
		t.Errorf("ProfitLossPct = %s, want exactly 0 for zero investment", v.ProfitLossPct)
	}
}

func TestValueZeroCostBasis(t *testing.T) {
	// Bonus shares: zero cost basis, positive market value.
	v := Value(holding("BONUS", 10, "0"), decimal.NewFromInt(50), true)

	if !v.Investment.IsZero() {
		t.Errorf("Investment = %s, want 0", v.Investment)
	}
	if !v.CurrentValue.Equal(decimal.NewFromInt(500)) {
		t.Errorf("CurrentValue = %s, want 500", v.CurrentValue)
	}
	if !v.ProfitLossPct.IsZero() {
		t.Errorf("ProfitLossPct = %s, want 0, never a division error", v.ProfitLossPct)
	}
}

func TestSumDerivesPercentageFromTotals(t *testing.T) {
	// One empty position and one with 10% gain: the total must be 10%,
	// not the 5% a naive average of per-holding percentages would give.
	vals := []domain.Valuation{
		Value(holding("EMPTY", 0, "100"), decimal.NewFromInt(100), true),
		Value(holding("GAINER", 10, "100"), decimal.NewFromInt(110), true),
	}

	total := Sum(vals)
	if !total.Investment.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Investment = %s, want 1000", total.Investment)
	}
	if !total.ProfitLoss.Equal(decimal.NewFromInt(100)) {
		t.Errorf("ProfitLoss = %s, want 100", total.ProfitLoss)
	}
	if !total.ProfitLossPct.Equal(decimal.NewFromInt(10)) {
		t.Errorf("ProfitLossPct = %s, want 10", total.ProfitLossPct)
	}
}

func TestSumAssociativity(t *testing.T) {
	a := []domain.Valuation{
		Value(holding("A1", 3, "50"), decimal.NewFromInt(60), true),
		Value(holding("A2", 7, "20"), decimal.NewFromInt(15), true),
	}
	b := []domain.Valuation{
		Value(holding("B1", 12, "110"), decimal.NewFromInt(95), true),
	}

	combined := Sum(append(append([]domain.Valuation{}, a...), b...))
	nested := Sum([]domain.Valuation{Sum(a), Sum(b)})

	if !combined.Investment.Equal(nested.Investment) {
		t.Errorf("Investment: combined %s != nested %s", combined.Investment, nested.Investment)
	}
	if !combined.CurrentValue.Equal(nested.CurrentValue) {
		t.Errorf("CurrentValue: combined %s != nested %s", combined.CurrentValue, nested.CurrentValue)
	}
	if !combined.ProfitLoss.Equal(nested.ProfitLoss) {
		t.Errorf("ProfitLoss: combined %s != nested %s", combined.ProfitLoss, nested.ProfitLoss)
	}
	if !combined.ProfitLossPct.Equal(nested.ProfitLossPct) {
		t.Errorf("ProfitLossPct: combined %s != nested %s", combined.ProfitLossPct, nested.ProfitLossPct)
	}
}

func TestSumEmpty(t *testing.T) {
	total := Sum(nil)
	if !total.Investment.IsZero() || !total.ProfitLossPct.IsZero() {
		t.Errorf("empty sum = %+v, want all zero", total)
	}
}

type stubPrices struct {
	prices map[string]decimal.Decimal
}

func (s *stubPrices) GetPrice(_ context.Context, symbol string) (decimal.Decimal, bool) {
	p, ok := s.prices[symbol]
	return p, ok
}

func TestValueHoldingsPreservesOrderAndFallsBack(t *testing.T) {
	svc := NewService(&stubPrices{prices: map[string]decimal.Decimal{
		"TCS": decimal.NewFromInt(120),
	}})

	holdings := []domain.Holding{
		holding("TCS", 10, "100"),
		holding("UNKNOWN", 4, "25"),
	}

	hvs := svc.ValueHoldings(context.Background(), holdings)
	if len(hvs) != 2 {
		t.Fatalf("len = %d, want 2", len(hvs))
	}
	if hvs[0].Holding.Symbol != "TCS" || hvs[1].Holding.Symbol != "UNKNOWN" {
		t.Errorf("order not preserved: %q, %q", hvs[0].Holding.Symbol, hvs[1].Holding.Symbol)
	}
	if !hvs[0].PriceKnown {
		t.Error("TCS price should be known")
	}
	if hvs[1].PriceKnown {
		t.Error("UNKNOWN price should be absent")
	}
	if !hvs[1].CurrentPrice.Equal(decimal.RequireFromString("25")) {
		t.Errorf("fallback CurrentPrice = %s, want buy price 25", hvs[1].CurrentPrice)
	}

	total := SumHoldings(hvs)
	if !total.Investment.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("total Investment = %s, want 1100", total.Investment)
	}
	// TCS contributes +200, UNKNOWN contributes 0 (break-even).
	if !total.ProfitLoss.Equal(decimal.NewFromInt(200)) {
		t.Errorf("total ProfitLoss = %s, want 200", total.ProfitLoss)
	}
}
