package strategy

import (
	"math"

	"trading-terminal/internal/model"
)

// VWAPEMA is the classic intraday VWAP-reclaim strategy.
//
// BUY:  price crosses above VWAP, EMA 9 > EMA 21, RSI > 50.
// SELL: price crosses below VWAP, EMA 9 < EMA 21, RSI < 50.
//
// VWAP is cumulative over the snapshot window (typical price weighted by
// volume), computed here rather than in the shared set since no other
// strategy uses it.
type VWAPEMA struct{}

func (s *VWAPEMA) Key() string { return "vwap_ema" }

func (s *VWAPEMA) Meta() Meta {
	return Meta{
		Name:          "VWAP + EMA",
		Description:   "Price vs VWAP crossover + EMA 9/21 direction + RSI. Classic intraday.",
		SignalsPerDay: "4-6",
		BestFor:       "5m, 15m",
		Style:         "Intraday",
	}
}

func (s *VWAPEMA) Evaluate(snap Snapshot) []model.Signal {
	ind := snap.Ind
	vwap := cumulativeVWAP(ind.High, ind.Low, ind.Close, ind.Volume)

	var out []model.Signal
	for i := 1; i < len(snap.Candles); i++ {
		rsi := ind.RSI14[i]
		if math.IsNaN(rsi) || math.IsNaN(vwap[i]) || math.IsNaN(vwap[i-1]) ||
			math.IsNaN(ind.EMA9[i]) || math.IsNaN(ind.EMA21[i]) {
			continue
		}
		price, prev := ind.Close[i], ind.Close[i-1]

		var side model.Side
		switch {
		case prev <= vwap[i-1] && price > vwap[i] && ind.EMA9[i] > ind.EMA21[i] && rsi > 50:
			side = model.SideBuy
		case prev >= vwap[i-1] && price < vwap[i] && ind.EMA9[i] < ind.EMA21[i] && rsi < 50:
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

// cumulativeVWAP returns the running volume-weighted average of the typical
// price. Indices before any volume has traded are NaN.
func cumulativeVWAP(high, low, close, volume []float64) []float64 {
	out := make([]float64, len(close))
	var pvSum, vSum float64
	for i := range close {
		tp := (high[i] + low[i] + close[i]) / 3
		pvSum += tp * volume[i]
		vSum += volume[i]
		if vSum == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = pvSum / vSum
	}
	return out
}
