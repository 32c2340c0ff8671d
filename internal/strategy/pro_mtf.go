package strategy

import (
	"math"

	"trading-terminal/internal/indicator"
	"trading-terminal/internal/model"
)

// ProMTF is the conservative multi-confirmation swing strategy.
//
// BUY:  EMA 9 crosses above EMA 21, RSI > 50, price above EMA 200,
//       Supertrend up.
// SELL: EMA 9 crosses below EMA 21, RSI < 50, price below EMA 200,
//       Supertrend down.
type ProMTF struct{}

func (s *ProMTF) Key() string { return "pro_mtf" }

func (s *ProMTF) Meta() Meta {
	return Meta{
		Name:          "Pro MTF",
		Description:   "EMA 9/21 cross + RSI + EMA 200 trend + Supertrend. Best for swing trading.",
		SignalsPerDay: "1-3",
		BestFor:       "1d",
		Style:         "Swing",
	}
}

func (s *ProMTF) Evaluate(snap Snapshot) []model.Signal {
	ind := snap.Ind
	var out []model.Signal
	for i := 1; i < len(snap.Candles); i++ {
		rsi := ind.RSI14[i]
		if math.IsNaN(rsi) || math.IsNaN(ind.EMA200[i]) {
			continue
		}
		price := ind.Close[i]

		var side model.Side
		switch {
		case ind.CrossOver921[i] && rsi > 50 && price > ind.EMA200[i] &&
			ind.Supertrend[i] == indicator.TrendUp:
			side = model.SideBuy
		case ind.CrossUnder921[i] && rsi < 50 && price < ind.EMA200[i] &&
			ind.Supertrend[i] == indicator.TrendDown:
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
