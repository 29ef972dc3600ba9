package preprocess

import "math"

// percentile returns the p-quantile of sorted using linear interpolation
// between closest ranks (h = (n-1)p), matching numpy.percentile and
// pandas describe.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}
