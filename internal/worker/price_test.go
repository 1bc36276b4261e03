package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type mockSymbolSource struct {
	symbols []string
}

func (m *mockSymbolSource) HeldSymbols(_ context.Context) ([]string, error) {
	return m.symbols, nil
}

type mockRefresher struct {
	callCount   atomic.Int32
	lastSymbols atomic.Value
}

func (m *mockRefresher) RefreshAll(_ context.Context, symbols []string) int {
	m.callCount.Add(1)
	m.lastSymbols.Store(symbols)
	return len(symbols)
}

func TestPriceWorkerRunsAndShutdown(t *testing.T) {
	source := &mockSymbolSource{symbols: []string{"TCS", "INFY"}}
	refresher := &mockRefresher{}
	w := NewPriceWorker(source, refresher, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial refresh + some ticks
	if got := refresher.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
	if got, _ := refresher.lastSymbols.Load().([]string); len(got) != 2 {
		t.Errorf("symbols = %v, want 2 entries", got)
	}
}

func TestPriceWorkerSkipsEmptyPortfolio(t *testing.T) {
	source := &mockSymbolSource{}
	refresher := &mockRefresher{}
	w := NewPriceWorker(source, refresher, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := refresher.callCount.Load(); got != 0 {
		t.Errorf("call count = %d, want 0 with no held symbols", got)
	}
}
