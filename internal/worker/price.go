// Package worker hosts the background loops: the periodic price refresh and
// the daily market report.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// SymbolSource lists the symbols whose prices are worth keeping warm.
type SymbolSource interface {
	HeldSymbols(ctx context.Context) ([]string, error)
}

// PriceRefresher refreshes stored observations for a set of symbols.
type PriceRefresher interface {
	RefreshAll(ctx context.Context, symbols []string) int
}

// PriceWorker periodically refreshes prices for all held symbols. Dashboards
// refresh on demand regardless; this loop just keeps the cache warm so a
// valuation pass rarely blocks on the network.
type PriceWorker struct {
	symbols   SymbolSource
	refresher PriceRefresher
	interval  time.Duration
}

// NewPriceWorker creates a new PriceWorker.
func NewPriceWorker(symbols SymbolSource, refresher PriceRefresher, interval time.Duration) *PriceWorker {
	return &PriceWorker{
		symbols:   symbols,
		refresher: refresher,
		interval:  interval,
	}
}

// Run starts the refresh loop. It blocks until the context is cancelled.
func (w *PriceWorker) Run(ctx context.Context) {
	slog.Info("PriceWorker: starting", "interval", w.interval)

	// Refresh immediately on startup
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("PriceWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *PriceWorker) refresh(ctx context.Context) {
	symbols, err := w.symbols.HeldSymbols(ctx)
	if err != nil {
		slog.Error("PriceWorker: listing held symbols failed", "error", err)
		return
	}
	if len(symbols) == 0 {
		slog.Info("PriceWorker: no held symbols, nothing to refresh")
		return
	}

	updated := w.refresher.RefreshAll(ctx, symbols)
	slog.Info("PriceWorker: refresh completed", "symbols", len(symbols), "updated", updated)
}
