package indicator

import "math"

// Crossover returns a boolean series that is true exactly where a
// transitions from <= b to > b between consecutive indices. Comparisons
// involving NaN are false.
func Crossover(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a) && i < len(b); i++ {
		if anyNaN(a[i-1], b[i-1], a[i], b[i]) {
			continue
		}
		out[i] = a[i-1] <= b[i-1] && a[i] > b[i]
	}
	return out
}

// Crossunder returns a boolean series that is true exactly where a
// transitions from >= b to < b between consecutive indices.
func Crossunder(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a) && i < len(b); i++ {
		if anyNaN(a[i-1], b[i-1], a[i], b[i]) {
			continue
		}
		out[i] = a[i-1] >= b[i-1] && a[i] < b[i]
	}
	return out
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
