package model

import (
	"encoding/json"
	"time"
)

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

const (
	TradeActive TradeStatus = "ACTIVE"
	TradeClosed TradeStatus = "CLOSED"
)

// ExitReason is the condition that closed a trade.
type ExitReason string

const (
	ExitStop    ExitReason = "stop"
	ExitTarget  ExitReason = "target"
	ExitTime    ExitReason = "time"
	ExitSession ExitReason = "session_end"
	ExitManual  ExitReason = "manual"
)

// Trade is a simulated (paper) position spawned from a Signal.
// Owned exclusively by the trade lifecycle manager while ACTIVE;
// the CLOSED transition happens exactly once and is terminal.
type Trade struct {
	Symbol     string      `json:"symbol"`
	Interval   Interval    `json:"interval"`
	Side       Side        `json:"side"`
	EntryPrice float64     `json:"entry_price"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	Strategy   string      `json:"strategy"`
	Confidence float64     `json:"confidence"`
	EntryRSI   float64     `json:"entry_rsi"`
	EntryATR   float64     `json:"entry_atr"`
	OpenedAt   time.Time   `json:"opened_at"`
	Status     TradeStatus `json:"status"`
	ExitPrice  float64     `json:"exit_price,omitempty"`
	ExitReason ExitReason  `json:"exit_reason,omitempty"`
	PnL        float64     `json:"pnl,omitempty"`
	PnLPct     float64     `json:"pnl_pct,omitempty"`
	ClosedAt   time.Time   `json:"closed_at,omitempty"`
}

// NewTrade builds an ACTIVE trade from a validated signal.
func NewTrade(sig Signal, openedAt time.Time) (*Trade, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	return &Trade{
		Symbol:     sig.Symbol,
		Interval:   sig.Interval,
		Side:       sig.Side,
		EntryPrice: sig.Price,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Strategy:   sig.Strategy,
		Confidence: sig.Confidence,
		EntryRSI:   sig.RSI,
		EntryATR:   sig.ATR,
		OpenedAt:   openedAt.UTC(),
		Status:     TradeActive,
	}, nil
}

// Key returns the manager key "symbol:interval".
func (t *Trade) Key() string {
	return t.Symbol + ":" + t.Interval.String()
}

// Active reports whether the trade is still open.
func (t *Trade) Active() bool { return t.Status == TradeActive }

// LivePnL computes the mark-to-market P&L at price. Pure read;
// for a CLOSED trade it returns the realized P&L.
func (t *Trade) LivePnL(price float64) float64 {
	if !t.Active() {
		return t.PnL
	}
	return (price - t.EntryPrice) * t.Side.Sign()
}

// Age returns how long the trade has been open as of now.
func (t *Trade) Age(now time.Time) time.Duration {
	return now.Sub(t.OpenedAt)
}

// JSON returns the JSON-encoded trade (ignoring errors for hot-path usage).
func (t *Trade) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}
