package indicator

import "math"

// TrueRange returns the true range series:
// max(high-low, |high-prevClose|, |low-prevClose|). Index 0 is high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		tr := high[i] - low[i]
		if i > 0 {
			if v := math.Abs(high[i] - close[i-1]); v > tr {
				tr = v
			}
			if v := math.Abs(low[i] - close[i-1]); v > tr {
				tr = v
			}
		}
		out[i] = tr
	}
	return out
}

// ATR computes the Wilder-smoothed average true range over period bars.
// The seed is the simple mean of the first period true ranges (indices
// 1..period), so indices < period are NaN.
func ATR(high, low, close []float64, period int) []float64 {
	out := nanSlice(len(close))
	if period <= 0 || len(close) <= period {
		return out
	}
	tr := TrueRange(high, low, close)

	var sum float64
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	n := float64(period)
	out[period] = sum / n
	for i := period + 1; i < len(close); i++ {
		out[i] = (out[i-1]*(n-1) + tr[i]) / n
	}
	return out
}
