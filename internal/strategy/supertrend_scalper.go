package strategy

import (
	"math"

	"trading-terminal/internal/indicator"
	"trading-terminal/internal/model"
)

// Aggressive Supertrend parameters for the scalper (vs 3.0/10 standard).
const (
	scalperSupertrendPeriod = 7
	scalperSupertrendMult   = 2.0
)

// SupertrendScalper is the aggressive scalping strategy: a fast
// Supertrend(2.0, 7) direction flip with a loose RSI confirmation.
//
// BUY:  Supertrend flips down→up, RSI > 45.
// SELL: Supertrend flips up→down, RSI < 55.
type SupertrendScalper struct{}

func (s *SupertrendScalper) Key() string { return "supertrend_scalper" }

func (s *SupertrendScalper) Meta() Meta {
	return Meta{
		Name:          "ST Scalper",
		Description:   "Fast Supertrend(2,7) direction flip + RSI confirmation. Most signals.",
		SignalsPerDay: "6-12",
		BestFor:       "5m",
		Style:         "Scalping",
	}
}

func (s *SupertrendScalper) Evaluate(snap Snapshot) []model.Signal {
	ind := snap.Ind
	st := indicator.Supertrend(ind.High, ind.Low, ind.Close,
		scalperSupertrendPeriod, scalperSupertrendMult)

	var out []model.Signal
	for i := 1; i < len(snap.Candles); i++ {
		rsi := ind.RSI14[i]
		if math.IsNaN(rsi) || st[i] == indicator.TrendNone || st[i-1] == indicator.TrendNone {
			continue
		}

		var side model.Side
		switch {
		case st[i-1] == indicator.TrendDown && st[i] == indicator.TrendUp && rsi > 45:
			side = model.SideBuy
		case st[i-1] == indicator.TrendUp && st[i] == indicator.TrendDown && rsi < 55:
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
