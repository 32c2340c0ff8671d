// Package feed defines the external market-data contracts the core
// consumes — a polled price source and a historical candle source — plus
// the built-in implementations: a deterministic simulator and a
// WebSocket streaming adapter.
//
// Fetch failures are transient by contract: the scheduler skips the
// symbol for that cycle and retries on the next one.
package feed

import (
	"context"

	"trading-terminal/internal/model"
)

// PriceSource supplies a fresh price observation per symbol.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (model.Tick, error)
}

// HistorySource supplies sealed historical candles, used to seed the
// candle store on first reference to a symbol.
type HistorySource interface {
	FetchHistory(ctx context.Context, symbol string, iv model.Interval, lookback int) ([]model.Candle, error)
}
