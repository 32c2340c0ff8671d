package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Side is the direction of a signal or trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Sign returns +1 for BUY and -1 for SELL.
func (s Side) Sign() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// Signal is a strategy's directional recommendation for a specific bar.
// Immutable once built; confidence is fixed at generation time.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Interval   Interval  `json:"interval"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Confidence float64   `json:"confidence"` // 0-100
	Strategy   string    `json:"strategy"`   // issuing strategy key
	BarTime    time.Time `json:"bar_time"`   // triggering bar start
	RSI        float64   `json:"rsi"`        // RSI at the triggering bar
	ATR        float64   `json:"atr"`        // ATR at the triggering bar
}

// Validate enforces the stop/target ordering for the signal's side:
// BUY requires SL < price < TP, SELL requires TP < price < SL.
func (s *Signal) Validate() error {
	switch s.Side {
	case SideBuy:
		if !(s.StopLoss < s.Price && s.Price < s.TakeProfit) {
			return fmt.Errorf("signal %s %s: want sl(%g) < price(%g) < tp(%g)",
				s.Symbol, s.Side, s.StopLoss, s.Price, s.TakeProfit)
		}
	case SideSell:
		if !(s.TakeProfit < s.Price && s.Price < s.StopLoss) {
			return fmt.Errorf("signal %s %s: want tp(%g) < price(%g) < sl(%g)",
				s.Symbol, s.Side, s.TakeProfit, s.Price, s.StopLoss)
		}
	default:
		return fmt.Errorf("signal %s: unknown side %q", s.Symbol, s.Side)
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return fmt.Errorf("signal %s: confidence %g out of [0,100]", s.Symbol, s.Confidence)
	}
	return nil
}

// JSON returns the JSON-encoded signal (ignoring errors for hot-path usage).
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
