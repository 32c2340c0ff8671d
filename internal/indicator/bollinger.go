package indicator

// Bollinger computes Bollinger Bands: middle = SMA(period),
// upper/lower = middle ± k * population stddev over the same window.
// Indices < period-1 are NaN.
func Bollinger(vals []float64, period int, k float64) (upper, middle, lower []float64) {
	middle = SMA(vals, period)
	upper = nanSlice(len(vals))
	lower = nanSlice(len(vals))
	if period <= 0 || len(vals) < period {
		return upper, middle, lower
	}
	for i := period - 1; i < len(vals); i++ {
		sd := stddev(vals[i-period+1:i+1], middle[i])
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}
	return upper, middle, lower
}
