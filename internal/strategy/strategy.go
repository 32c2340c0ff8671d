// Package strategy provides the strategy engine: a name-keyed registry of
// trading strategies and a scan loop that evaluates them over
// indicator-augmented candle sequences.
//
// A Strategy is a pure evaluation: for a fixed snapshot it always returns
// the same signals. No wall clock, no I/O, no state between calls — that
// is what makes each strategy independently unit-testable and lets scans
// run in parallel across symbols.
package strategy

import (
	"trading-terminal/internal/indicator"
	"trading-terminal/internal/model"
)

// Snapshot is the read-only input handed to a strategy: one symbol's sealed
// candle window plus the standard indicator set computed over it.
type Snapshot struct {
	Symbol   string
	Interval model.Interval
	Candles  []model.Candle
	Ind      *indicator.Set
}

// Meta describes a strategy for listing/inspection.
type Meta struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SignalsPerDay string `json:"signals_day"`
	BestFor       string `json:"best_for"`
	Style         string `json:"style"`
}

// Strategy is the interface all trading strategies implement.
type Strategy interface {
	// Key returns the unique registry key (e.g. "pro_mtf").
	Key() string

	// Meta returns display metadata.
	Meta() Meta

	// Evaluate scans the snapshot and returns signals for every bar whose
	// conditions fire. Must be deterministic and must not mutate the snapshot.
	Evaluate(snap Snapshot) []model.Signal
}
