package indicator

import "math"

// MACD computes the moving average convergence/divergence:
// line = EMA(fast) - EMA(slow), signal = EMA(signalPeriod) of the line,
// hist = line - signal. Warm-up indices are NaN.
func MACD(vals []float64, fast, slow, signalPeriod int) (line, signal, hist []float64) {
	emaFast := EMA(vals, fast)
	emaSlow := EMA(vals, slow)

	line = nanSlice(len(vals))
	for i := range vals {
		if !math.IsNaN(emaFast[i]) && !math.IsNaN(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}

	signal = emaFrom(line, signalPeriod, 0)

	hist = nanSlice(len(vals))
	for i := range vals {
		if !math.IsNaN(line[i]) && !math.IsNaN(signal[i]) {
			hist[i] = line[i] - signal[i]
		}
	}
	return line, signal, hist
}
