package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/sharefolio/tracker/internal/export"
	"github.com/sharefolio/tracker/internal/market"
)

// ReportSink receives each finished report.
type ReportSink interface {
	AppendMarketReport(ctx context.Context, report export.MarketReport) error
}

// ReportWorker periodically assembles a market report and appends it to the
// configured sink.
type ReportWorker struct {
	markets  *market.Service
	sink     ReportSink
	interval time.Duration
}

// NewReportWorker creates a new ReportWorker.
func NewReportWorker(markets *market.Service, sink ReportSink, interval time.Duration) *ReportWorker {
	return &ReportWorker{
		markets:  markets,
		sink:     sink,
		interval: interval,
	}
}

// Run starts the report loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting", "interval", w.interval)

	// Report immediately on startup
	w.report(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.report(ctx)
		}
	}
}

func (w *ReportWorker) report(ctx context.Context) {
	gainers, losers := w.markets.TopMovers(ctx)
	report := export.MarketReport{
		At:      time.Now().UTC(),
		Nifty50: w.markets.Constituents(ctx, market.IndexNifty50),
		Sensex:  w.markets.Constituents(ctx, market.IndexSensex),
		Gainers: gainers,
		Losers:  losers,
	}

	if err := w.sink.AppendMarketReport(ctx, report); err != nil {
		slog.Error("ReportWorker: append failed", "error", err)
		return
	}
	slog.Info("ReportWorker: report appended",
		"nifty50", len(report.Nifty50),
		"sensex", len(report.Sensex))
}
