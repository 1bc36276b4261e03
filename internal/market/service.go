package market

import (
	"context"
	"log/slog"

	"github.com/sharefolio/tracker/internal/domain"
)

// Index identifies a supported constituents listing.
type Index string

const (
	IndexNifty50 Index = "nifty50"
	IndexSensex  Index = "sensex"
)

// listing maps each supported index or ranking to its page path and row cap.
type listing struct {
	path  string
	limit int
}

var indexListings = map[Index]listing{
	IndexNifty50: {path: "/quote/.NSEI:INDEXNSE", limit: 50},
	IndexSensex:  {path: "/quote/.BSESN:INDEXBOM", limit: 30},
}

var (
	gainersListing = listing{path: "/markets/gainers?hl=en", limit: 5}
	losersListing  = listing{path: "/markets/losers?hl=en", limit: 5}
)

// ListingClient fetches an ordered set of market entries from a page path.
type ListingClient interface {
	Listing(ctx context.Context, path string, limit int) ([]domain.MarketEntry, error)
}

// Service serves one-shot market snapshot lists for the public display
// surface. Nothing here is cached and nothing errors to the caller: a total
// fetch failure is logged and surfaces as an empty list.
type Service struct {
	client ListingClient
}

// NewService creates a market snapshot service.
func NewService(client ListingClient) *Service {
	return &Service{client: client}
}

// Constituents returns the entries for a named index, most-weighted first as
// the source page orders them. Unknown indexes yield an empty list.
func (s *Service) Constituents(ctx context.Context, index Index) []domain.MarketEntry {
	l, ok := indexListings[index]
	if !ok {
		slog.Warn("unknown index requested", "index", index)
		return nil
	}
	return s.fetch(ctx, l)
}

// TopMovers returns the day's top gainers and losers, five each.
func (s *Service) TopMovers(ctx context.Context) (gainers, losers []domain.MarketEntry) {
	return s.fetch(ctx, gainersListing), s.fetch(ctx, losersListing)
}

func (s *Service) fetch(ctx context.Context, l listing) []domain.MarketEntry {
	entries, err := s.client.Listing(ctx, l.path, l.limit)
	if err != nil {
		slog.Warn("market listing fetch failed", "path", l.path, "error", err)
		return nil
	}
	return entries
}
