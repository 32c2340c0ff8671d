package strategy

import (
	"math"

	"trading-terminal/internal/model"
)

// RSIReversal is the mean-reversion strategy: RSI leaving an extreme zone
// with an EMA 50 trend filter.
//
// BUY:  RSI crosses up through 30 (exits oversold), price above EMA 50.
// SELL: RSI crosses down through 70 (exits overbought), price below EMA 50.
type RSIReversal struct{}

func (s *RSIReversal) Key() string { return "rsi_reversal" }

func (s *RSIReversal) Meta() Meta {
	return Meta{
		Name:          "RSI Reversal",
		Description:   "RSI exits oversold (<30) or overbought (>70) zones with EMA 50 filter.",
		SignalsPerDay: "3-6",
		BestFor:       "5m, 15m",
		Style:         "Mean Reversion",
	}
}

func (s *RSIReversal) Evaluate(snap Snapshot) []model.Signal {
	ind := snap.Ind
	var out []model.Signal
	for i := 1; i < len(snap.Candles); i++ {
		rsi, rsiPrev := ind.RSI14[i], ind.RSI14[i-1]
		if math.IsNaN(rsi) || math.IsNaN(rsiPrev) || math.IsNaN(ind.EMA50[i]) {
			continue
		}
		price := ind.Close[i]

		var side model.Side
		switch {
		case rsiPrev < 30 && rsi >= 30 && price > ind.EMA50[i]:
			side = model.SideBuy
		case rsiPrev > 70 && rsi <= 70 && price < ind.EMA50[i]:
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
