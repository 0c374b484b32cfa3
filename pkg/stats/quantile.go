package stats

import "math"

// Quantile computes the q-th quantile (0..1) of values sorted ascending,
// using linear interpolation between adjacent ranks (the "R-7" definition
// shared by R, NumPy and friends). A position landing exactly on an index
// returns that element unchanged.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= n {
		return sorted[n-1]
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// quantileIndex returns the sorted index whose element labels the boundary
// statistic at q: the floor rank, i.e. the first record contributing to the
// (possibly interpolated) value.
func quantileIndex(n int, q float64) int {
	if n <= 1 {
		return 0
	}
	i := int(math.Floor(q * float64(n-1)))
	if i >= n {
		i = n - 1
	}
	return i
}
