package api

import (
	"net/http"

	"github.com/sharefolio/tracker/internal/market"
)

// MarketHandler provides HTTP endpoints for market listings. The market
// layer never errors; a scrape failure shows up as an empty list.
type MarketHandler struct {
	markets *market.Service
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(markets *market.Service) *MarketHandler {
	return &MarketHandler{markets: markets}
}

// Nifty50 handles GET /api/v1/markets/nifty50.
func (h *MarketHandler) Nifty50(w http.ResponseWriter, r *http.Request) {
	h.constituents(w, r, market.IndexNifty50)
}

// Sensex handles GET /api/v1/markets/sensex.
func (h *MarketHandler) Sensex(w http.ResponseWriter, r *http.Request) {
	h.constituents(w, r, market.IndexSensex)
}

func (h *MarketHandler) constituents(w http.ResponseWriter, r *http.Request, index market.Index) {
	entries := h.markets.Constituents(r.Context(), index)
	writeJSON(w, http.StatusOK, map[string]any{
		"index":   index,
		"entries": entries,
	})
}

// Movers handles GET /api/v1/markets/movers.
func (h *MarketHandler) Movers(w http.ResponseWriter, r *http.Request) {
	gainers, losers := h.markets.TopMovers(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"gainers": gainers,
		"losers":  losers,
	})
}
