package trade

// Summary aggregates performance over the manager's trade history.
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	OpenPositions int     `json:"open_positions"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRatePct    float64 `json:"win_rate_pct"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	TotalPnL      float64 `json:"total_pnl"`

	ByStrategy map[string]StrategyStats `json:"by_strategy"`
	ByReason   map[string]int           `json:"by_reason"`
}

// StrategyStats is the per-strategy slice of the summary.
type StrategyStats struct {
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	PnL    float64 `json:"pnl"`
}

// Summary computes performance stats over all closed trades, plus
// unrealized P&L for ACTIVE trades marked at currentPrices (keyed by
// symbol; missing symbols contribute zero).
func (m *Manager) Summary(currentPrices map[string]float64) Summary {
	s := Summary{
		ByStrategy: make(map[string]StrategyStats),
		ByReason:   make(map[string]int),
	}

	for _, t := range m.ClosedTrades() {
		s.TotalTrades++
		s.RealizedPnL += t.PnL
		if t.PnL > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
		s.ByReason[string(t.ExitReason)]++

		st := s.ByStrategy[t.Strategy]
		st.Trades++
		st.PnL += t.PnL
		if t.PnL > 0 {
			st.Wins++
		}
		s.ByStrategy[t.Strategy] = st
	}

	for _, t := range m.ActiveTrades() {
		s.OpenPositions++
		if price, ok := currentPrices[t.Symbol]; ok {
			s.UnrealizedPnL += t.LivePnL(price)
		}
	}

	if s.TotalTrades > 0 {
		s.WinRatePct = float64(s.Wins) / float64(s.TotalTrades) * 100
	}
	s.TotalPnL = s.RealizedPnL + s.UnrealizedPnL
	return s
}
