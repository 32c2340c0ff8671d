package strategy

import (
	"math"

	"trading-terminal/internal/indicator"
	"trading-terminal/internal/model"
)

// volSpikeMult is the volume-confirmation threshold: the breakout bar must
// trade more than this multiple of the 20-bar average volume.
const volSpikeMult = 1.3

// BollingerBreakout is the momentum breakout strategy.
//
// BUY:  close breaks above the upper band, RSI > 55, volume spike.
// SELL: close breaks below the lower band, RSI < 45, volume spike.
type BollingerBreakout struct{}

func (s *BollingerBreakout) Key() string { return "bollinger_breakout" }

func (s *BollingerBreakout) Meta() Meta {
	return Meta{
		Name:          "Bollinger Breakout",
		Description:   "Price breaks Bollinger Band + RSI momentum + volume spike confirmation.",
		SignalsPerDay: "4-6",
		BestFor:       "5m, 15m",
		Style:         "Breakout",
	}
}

func (s *BollingerBreakout) Evaluate(snap Snapshot) []model.Signal {
	ind := snap.Ind
	volAvg := indicator.SMA(ind.Volume, indicator.BollingerPeriod)

	var out []model.Signal
	for i := 1; i < len(snap.Candles); i++ {
		rsi := ind.RSI14[i]
		if math.IsNaN(rsi) || math.IsNaN(ind.BBUpper[i]) || math.IsNaN(ind.BBUpper[i-1]) ||
			math.IsNaN(volAvg[i]) {
			continue
		}
		price, prev := ind.Close[i], ind.Close[i-1]
		volOK := ind.Volume[i] > volAvg[i]*volSpikeMult

		var side model.Side
		switch {
		case prev <= ind.BBUpper[i-1] && price > ind.BBUpper[i] && rsi > 55 && volOK:
			side = model.SideBuy
		case prev >= ind.BBLower[i-1] && price < ind.BBLower[i] && rsi < 45 && volOK:
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
