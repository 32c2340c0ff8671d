// Package indicator provides pure technical indicator calculations over
// candle series.
//
// Every function is a pure transform: same input, bit-identical output,
// no hidden state between calls. Warm-up indices (fewer than the minimum
// lookback) are NaN; input shorter than the minimum yields an all-NaN
// series of the same length, never a panic.
package indicator

import "math"

var nan = math.NaN()

// nanSlice returns a length-n slice filled with NaN.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

// SMA computes the simple moving average over period bars.
// Indices < period-1 are NaN.
func SMA(vals []float64, period int) []float64 {
	out := nanSlice(len(vals))
	if period <= 0 || len(vals) < period {
		return out
	}
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= period {
			sum -= vals[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average with smoothing 2/(period+1),
// seeded with the SMA of the first period values. Indices < period-1 are NaN.
func EMA(vals []float64, period int) []float64 {
	return emaFrom(vals, period, 0)
}

// emaFrom computes an EMA starting at offset start, skipping any leading
// NaN region before it. Used directly for derived series (MACD signal)
// whose inputs carry warm-up NaNs.
func emaFrom(vals []float64, period, start int) []float64 {
	out := nanSlice(len(vals))
	if period <= 0 {
		return out
	}
	for start < len(vals) && math.IsNaN(vals[start]) {
		start++
	}
	if len(vals)-start < period {
		return out
	}
	var sum float64
	for i := start; i < start+period; i++ {
		sum += vals[i]
	}
	seed := start + period - 1
	out[seed] = sum / float64(period)

	alpha := 2.0 / float64(period+1)
	for i := seed + 1; i < len(vals); i++ {
		out[i] = vals[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// stddev returns the population standard deviation of window.
func stddev(window []float64, mean float64) float64 {
	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(window)))
}
