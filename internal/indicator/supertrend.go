package indicator

import "math"

// Trend direction values emitted by Supertrend.
const (
	TrendNone = 0
	TrendUp   = 1
	TrendDown = -1
)

// Supertrend computes the ATR trailing-band trend direction.
//
// Raw bands are hl2 ± mult*ATR(period). The lower band only ratchets up
// while price holds above it; the upper band only ratchets down while price
// holds below it. The trend flips to up when close crosses above the carried
// upper band and to down when close crosses below the carried lower band;
// between crossings the prior trend persists. Indices before the ATR is
// ready are TrendNone.
func Supertrend(high, low, close []float64, period int, mult float64) []int {
	n := len(close)
	out := make([]int, n)
	if period <= 0 || n <= period {
		return out
	}
	atr := ATR(high, low, close, period)

	upper := make([]float64, n)
	lower := make([]float64, n)
	trend := TrendDown // start bearish until proven otherwise
	seeded := false

	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) {
			continue
		}
		hl2 := (high[i] + low[i]) / 2
		rawUpper := hl2 + mult*atr[i]
		rawLower := hl2 - mult*atr[i]

		if !seeded {
			upper[i] = rawUpper
			lower[i] = rawLower
			seeded = true
			out[i] = trend
			continue
		}

		// Carry bands: lower only tightens upward, upper only downward,
		// unless the prior close already broke through.
		if rawLower > lower[i-1] || close[i-1] < lower[i-1] {
			lower[i] = rawLower
		} else {
			lower[i] = lower[i-1]
		}
		if rawUpper < upper[i-1] || close[i-1] > upper[i-1] {
			upper[i] = rawUpper
		} else {
			upper[i] = upper[i-1]
		}

		if trend == TrendDown {
			if close[i] > upper[i] {
				trend = TrendUp
			}
		} else {
			if close[i] < lower[i] {
				trend = TrendDown
			}
		}
		out[i] = trend
	}
	return out
}
