package market

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
)

type mockListings struct {
	entries map[string][]domain.MarketEntry
	limits  map[string]int
}

func (m *mockListings) Listing(_ context.Context, path string, limit int) ([]domain.MarketEntry, error) {
	if m.limits != nil {
		m.limits[path] = limit
	}
	entries, ok := m.entries[path]
	if !ok {
		return nil, errors.New("HTTP 502")
	}
	return entries, nil
}

func entry(symbol string, price int64) domain.MarketEntry {
	return domain.MarketEntry{Symbol: symbol, LastPrice: decimal.NewFromInt(price)}
}

func TestConstituents(t *testing.T) {
	client := &mockListings{
		entries: map[string][]domain.MarketEntry{
			"/quote/.NSEI:INDEXNSE": {entry("RELIANCE", 2456), entry("TCS", 3890)},
		},
		limits: make(map[string]int),
	}
	svc := NewService(client)

	got := svc.Constituents(context.Background(), IndexNifty50)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Symbol != "RELIANCE" {
		t.Errorf("first symbol = %q", got[0].Symbol)
	}
	if client.limits["/quote/.NSEI:INDEXNSE"] != 50 {
		t.Errorf("limit = %d, want 50", client.limits["/quote/.NSEI:INDEXNSE"])
	}
}

func TestConstituentsSensexLimit(t *testing.T) {
	client := &mockListings{
		entries: map[string][]domain.MarketEntry{"/quote/.BSESN:INDEXBOM": {entry("HDFC", 1600)}},
		limits:  make(map[string]int),
	}
	svc := NewService(client)

	svc.Constituents(context.Background(), IndexSensex)
	if client.limits["/quote/.BSESN:INDEXBOM"] != 30 {
		t.Errorf("limit = %d, want 30", client.limits["/quote/.BSESN:INDEXBOM"])
	}
}

func TestConstituentsUnknownIndex(t *testing.T) {
	svc := NewService(&mockListings{})
	if got := svc.Constituents(context.Background(), Index("ftse")); got != nil {
		t.Errorf("got %v, want nil for unknown index", got)
	}
}

func TestConstituentsFetchFailureYieldsEmpty(t *testing.T) {
	svc := NewService(&mockListings{entries: map[string][]domain.MarketEntry{}})
	if got := svc.Constituents(context.Background(), IndexNifty50); len(got) != 0 {
		t.Errorf("got %d entries, want 0 on total failure", len(got))
	}
}

func TestTopMovers(t *testing.T) {
	client := &mockListings{
		entries: map[string][]domain.MarketEntry{
			"/markets/gainers?hl=en": {entry("UP1", 10), entry("UP2", 20)},
			"/markets/losers?hl=en":  {entry("DOWN1", 5)},
		},
	}
	svc := NewService(client)

	gainers, losers := svc.TopMovers(context.Background())
	if len(gainers) != 2 || len(losers) != 1 {
		t.Errorf("gainers = %d, losers = %d, want 2 and 1", len(gainers), len(losers))
	}
}

func TestTopMoversPartialFailure(t *testing.T) {
	client := &mockListings{
		entries: map[string][]domain.MarketEntry{
			"/markets/gainers?hl=en": {entry("UP1", 10)},
			// losers page missing: fetch fails
		},
	}
	svc := NewService(client)

	gainers, losers := svc.TopMovers(context.Background())
	if len(gainers) != 1 {
		t.Errorf("gainers = %d, want 1", len(gainers))
	}
	if len(losers) != 0 {
		t.Errorf("losers = %d, want 0", len(losers))
	}
}
