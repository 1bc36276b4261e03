package price

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteClient looks up a symbol's price on one exchange listing.
type QuoteClient interface {
	Quote(ctx context.Context, symbol, exchange string) (decimal.Decimal, error)
}

// Service serves current prices from stored observations, falling back to
// external lookups when the stored observation is missing or stale.
type Service struct {
	quotes    QuoteClient
	repo      ObservationRepo
	freshness time.Duration
	primary   string
	fallback  string
}

// NewService creates a price service. An observation younger than freshness
// is served without an external call; otherwise the primary exchange is
// tried, then the fallback.
func NewService(quotes QuoteClient, repo ObservationRepo, freshness time.Duration, primary, fallback string) *Service {
	return &Service{
		quotes:    quotes,
		repo:      repo,
		freshness: freshness,
		primary:   primary,
		fallback:  fallback,
	}
}

// GetPrice returns the current price for symbol, and false when no price can
// be determined. Failures never propagate: every miss is logged with its
// reason and collapses into the false return, leaving callers to substitute
// a last-known value.
func (s *Service) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	obs, err := s.repo.Latest(ctx, symbol)
	switch {
	case err == nil:
		if time.Since(obs.ObservedAt) < s.freshness {
			return obs.Price, true
		}
	case !errors.Is(err, ErrNotFound):
		// A broken store reads as a cache miss; the external lookup below
		// still gives the caller a price.
		slog.Error("reading price observation failed", "symbol", symbol, "error", err)
	}

	return s.Refresh(ctx, symbol)
}

// Refresh performs an external lookup for symbol regardless of stored
// freshness, persisting any price it finds. Tried exchanges are sequential;
// there is no retry within a call — the next call is the retry.
func (s *Service) Refresh(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	for _, exchange := range []string{s.primary, s.fallback} {
		price, err := s.quotes.Quote(ctx, symbol, exchange)
		if err != nil {
			slog.Warn("price lookup miss", "symbol", symbol, "exchange", exchange, "error", err)
			continue
		}

		if err := s.repo.Upsert(ctx, symbol, price); err != nil {
			// Degrades to a cache miss on the next call; the fetched price
			// is still good for this one.
			slog.Error("persisting price observation failed", "symbol", symbol, "error", err)
		}
		return price, true
	}

	slog.Warn("no price available from any exchange", "symbol", symbol)
	return decimal.Zero, false
}

// RefreshAll refreshes every symbol sequentially. Individual misses are
// already logged; the returned count says how many symbols got a price.
func (s *Service) RefreshAll(ctx context.Context, symbols []string) int {
	updated := 0
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return updated
		}
		if _, ok := s.Refresh(ctx, symbol); ok {
			updated++
		}
	}
	return updated
}
