package strategy

import (
	"math"

	"trading-terminal/internal/model"
)

// MACDCrossover is the trend-following MACD strategy.
//
// BUY:  MACD crosses above the signal line, histogram > 0, RSI > 50.
// SELL: MACD crosses below the signal line, histogram < 0, RSI < 50.
type MACDCrossover struct{}

func (s *MACDCrossover) Key() string { return "macd_crossover" }

func (s *MACDCrossover) Meta() Meta {
	return Meta{
		Name:          "MACD Crossover",
		Description:   "MACD crosses Signal line + histogram confirms + RSI filter.",
		SignalsPerDay: "4-6",
		BestFor:       "15m, 1h",
		Style:         "Trend",
	}
}

func (s *MACDCrossover) Evaluate(snap Snapshot) []model.Signal {
	ind := snap.Ind
	var out []model.Signal
	for i := 1; i < len(snap.Candles); i++ {
		rsi := ind.RSI14[i]
		if math.IsNaN(rsi) || math.IsNaN(ind.MACD[i]) || math.IsNaN(ind.MACD[i-1]) ||
			math.IsNaN(ind.MACDSignal[i]) || math.IsNaN(ind.MACDSignal[i-1]) ||
			math.IsNaN(ind.MACDHist[i]) {
			continue
		}

		crossUp := ind.MACD[i-1] <= ind.MACDSignal[i-1] && ind.MACD[i] > ind.MACDSignal[i]
		crossDown := ind.MACD[i-1] >= ind.MACDSignal[i-1] && ind.MACD[i] < ind.MACDSignal[i]

		var side model.Side
		switch {
		case crossUp && ind.MACDHist[i] > 0 && rsi > 50:
			side = model.SideBuy
		case crossDown && ind.MACDHist[i] < 0 && rsi < 50:
			side = model.SideSell
		default:
			continue
		}

		sig, err := BuildSignal(snap, i, side, s.Key())
		if err != nil {
			continue
		}
		out = append(out, sig)
	}
	return out
}
