package bus

import "trading-terminal/internal/model"

// Event types published by the core pipeline.
const (
	EventPriceTick    = "price_tick"
	EventCandleSealed = "candle_sealed"
	EventSignal       = "signal_generated"
	EventTradeOpened  = "trade_opened"
	EventTradeClosed  = "trade_closed"
)

// PriceTick is the payload of EventPriceTick: the fresh price, the live
// bar snapshot, and — when a trade is open on the key — its state and
// mark-to-market P&L.
type PriceTick struct {
	Symbol      string       `json:"symbol"`
	Price       float64      `json:"price"`
	Bar         model.Candle `json:"bar"`
	ActiveTrade *model.Trade `json:"active_trade,omitempty"`
	LivePnL     *float64     `json:"live_pnl,omitempty"`
}

// CandleSealed is the payload of EventCandleSealed.
type CandleSealed struct {
	Candle model.Candle `json:"candle"`
}

// SignalGenerated is the payload of EventSignal.
type SignalGenerated struct {
	Signal model.Signal `json:"signal"`
}

// TradeOpened is the payload of EventTradeOpened.
type TradeOpened struct {
	Trade model.Trade `json:"trade"`
}

// TradeClosed is the payload of EventTradeClosed.
type TradeClosed struct {
	Symbol    string           `json:"symbol"`
	ExitPrice float64          `json:"exit_price"`
	Reason    model.ExitReason `json:"reason"`
	PnL       float64          `json:"pnl"`
	Trade     model.Trade      `json:"trade"`
}
