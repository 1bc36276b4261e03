package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
)

type mockRepo struct {
	observations map[string]domain.PriceObservation
	upserts      int
	failUpsert   bool
	failLatest   bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{observations: make(map[string]domain.PriceObservation)}
}

func (m *mockRepo) Latest(_ context.Context, symbol string) (domain.PriceObservation, error) {
	if m.failLatest {
		return domain.PriceObservation{}, errors.New("connection refused")
	}
	obs, ok := m.observations[symbol]
	if !ok {
		return domain.PriceObservation{}, ErrNotFound
	}
	return obs, nil
}

func (m *mockRepo) Upsert(_ context.Context, symbol string, price decimal.Decimal) error {
	m.upserts++
	if m.failUpsert {
		return errors.New("disk full")
	}
	m.observations[symbol] = domain.PriceObservation{Symbol: symbol, Price: price, ObservedAt: time.Now()}
	return nil
}

// mockQuotes returns canned prices per exchange and counts lookups.
type mockQuotes struct {
	prices map[string]decimal.Decimal // keyed by exchange
	calls  []string
}

func (m *mockQuotes) Quote(_ context.Context, symbol, exchange string) (decimal.Decimal, error) {
	m.calls = append(m.calls, exchange)
	p, ok := m.prices[exchange]
	if !ok {
		return decimal.Zero, errors.New("no usable price on page")
	}
	return p, nil
}

func TestGetPriceFreshObservationSkipsLookup(t *testing.T) {
	repo := newMockRepo()
	repo.observations["TCS"] = domain.PriceObservation{
		Symbol:     "TCS",
		Price:      decimal.NewFromInt(3890),
		ObservedAt: time.Now().Add(-1 * time.Minute),
	}
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{"NSE": decimal.NewFromInt(9999)}}

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	got, ok := svc.GetPrice(context.Background(), "TCS")

	if !ok {
		t.Fatal("expected price, got absent")
	}
	if !got.Equal(decimal.NewFromInt(3890)) {
		t.Errorf("price = %s, want cached 3890", got)
	}
	if len(quotes.calls) != 0 {
		t.Errorf("external calls = %d, want 0 for fresh observation", len(quotes.calls))
	}
}

func TestGetPriceStaleObservationTriggersOneLookup(t *testing.T) {
	repo := newMockRepo()
	repo.observations["TCS"] = domain.PriceObservation{
		Symbol:     "TCS",
		Price:      decimal.NewFromInt(3890),
		ObservedAt: time.Now().Add(-10 * time.Minute),
	}
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{"NSE": decimal.NewFromInt(3905)}}

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	got, ok := svc.GetPrice(context.Background(), "TCS")

	if !ok {
		t.Fatal("expected price, got absent")
	}
	if !got.Equal(decimal.NewFromInt(3905)) {
		t.Errorf("price = %s, want refreshed 3905", got)
	}
	if len(quotes.calls) != 1 || quotes.calls[0] != "NSE" {
		t.Errorf("calls = %v, want exactly one NSE lookup", quotes.calls)
	}
	if stored := repo.observations["TCS"].Price; !stored.Equal(decimal.NewFromInt(3905)) {
		t.Errorf("stored price = %s, want 3905", stored)
	}
}

func TestGetPriceFallbackExchange(t *testing.T) {
	repo := newMockRepo()
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{"BSE": decimal.NewFromInt(50)}}

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	got, ok := svc.GetPrice(context.Background(), "NEWIPO")

	if !ok {
		t.Fatal("expected fallback price, got absent")
	}
	if !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("price = %s, want 50", got)
	}
	if len(quotes.calls) != 2 {
		t.Errorf("calls = %v, want primary then fallback", quotes.calls)
	}
	if stored := repo.observations["NEWIPO"].Price; !stored.Equal(decimal.NewFromInt(50)) {
		t.Errorf("fallback price not persisted, stored = %s", stored)
	}
}

func TestGetPriceBothExchangesFail(t *testing.T) {
	repo := newMockRepo()
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{}}

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	got, ok := svc.GetPrice(context.Background(), "DELISTED")

	if ok {
		t.Fatal("expected absent price")
	}
	if !got.IsZero() {
		t.Errorf("price = %s, want zero for absent", got)
	}
	if len(quotes.calls) != 2 {
		t.Errorf("calls = %v, want both exchanges tried once", quotes.calls)
	}
}

func TestGetPricePersistFailureStillReturnsPrice(t *testing.T) {
	repo := newMockRepo()
	repo.failUpsert = true
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{"NSE": decimal.NewFromInt(120)}}

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	got, ok := svc.GetPrice(context.Background(), "INFY")

	if !ok {
		t.Fatal("expected price despite persistence failure")
	}
	if !got.Equal(decimal.NewFromInt(120)) {
		t.Errorf("price = %s, want 120", got)
	}
}

func TestGetPriceBrokenStoreReadsAsMiss(t *testing.T) {
	repo := newMockRepo()
	repo.failLatest = true
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{"NSE": decimal.NewFromInt(77)}}

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	got, ok := svc.GetPrice(context.Background(), "INFY")

	if !ok || !got.Equal(decimal.NewFromInt(77)) {
		t.Errorf("got (%s, %v), want (77, true)", got, ok)
	}
}

func TestRefreshAll(t *testing.T) {
	repo := newMockRepo()
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{"NSE": decimal.NewFromInt(10)}}

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	updated := svc.RefreshAll(context.Background(), []string{"A", "B", "C"})

	if updated != 3 {
		t.Errorf("updated = %d, want 3", updated)
	}
	if repo.upserts != 3 {
		t.Errorf("upserts = %d, want 3", repo.upserts)
	}
}

func TestRefreshAllStopsOnCancelledContext(t *testing.T) {
	repo := newMockRepo()
	quotes := &mockQuotes{prices: map[string]decimal.Decimal{"NSE": decimal.NewFromInt(10)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(quotes, repo, 5*time.Minute, "NSE", "BSE")
	updated := svc.RefreshAll(ctx, []string{"A", "B", "C"})

	if updated != 0 {
		t.Errorf("updated = %d, want 0 after cancel", updated)
	}
}
