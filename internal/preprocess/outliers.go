// Package preprocess removes extreme photometric outliers and summarises
// dataset columns before a split.
package preprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/stellar-metallicity/pasm/internal/observation"
)

// DefaultIQRFactor is the whisker multiplier applied to the interquartile range.
const DefaultIQRFactor = 1.5

// OutlierOptions controls RemoveOutliers.
type OutlierOptions struct {
	// IQRFactor scales the IQR when building the retention bounds.
	IQRFactor float64
	// Reps is how many times the bounds are recomputed and applied.
	Reps int
}

// DefaultOutlierOptions returns a single pass with 1.5×IQR whiskers.
func DefaultOutlierOptions() OutlierOptions {
	return OutlierOptions{IQRFactor: DefaultIQRFactor, Reps: 1}
}

// Pass records the bounds used by one repetition.
type Pass struct {
	Lower   float64
	Upper   float64
	Before  int
	Removed int
}

// OutlierReport describes what RemoveOutliers did.
type OutlierReport struct {
	Passes []Pass
	Kept   int
}

// Removed is the total number of rows dropped across all passes.
func (r OutlierReport) Removed() int {
	n := 0
	for _, p := range r.Passes {
		n += p.Removed
	}
	return n
}

// RemoveOutliers drops rows whose color indices fall outside a shared
// window. On every pass, the window runs from the smallest Q1−k·IQR to the
// largest Q3+k·IQR across ug, gr, ri and iz, and a row is kept only if all
// four colors lie inside it. feh is never used to reject rows. The input
// slice is not modified.
func RemoveOutliers(obs []observation.Observation, opts OutlierOptions) ([]observation.Observation, OutlierReport, error) {
	if len(obs) == 0 {
		return nil, OutlierReport{}, observation.ErrNoData
	}
	if math.IsNaN(opts.IQRFactor) || opts.IQRFactor < 0 {
		return nil, OutlierReport{}, fmt.Errorf("iqr factor must be non-negative, got %v", opts.IQRFactor)
	}
	if opts.Reps < 0 {
		return nil, OutlierReport{}, fmt.Errorf("reps must be non-negative, got %d", opts.Reps)
	}

	kept := append([]observation.Observation(nil), obs...)
	var report OutlierReport

	for rep := 0; rep < opts.Reps && len(kept) > 0; rep++ {
		lower, upper := colorBounds(kept, opts.IQRFactor)

		next := kept[:0:0]
		for _, o := range kept {
			if withinBounds(o, lower, upper) {
				next = append(next, o)
			}
		}

		report.Passes = append(report.Passes, Pass{
			Lower:   lower,
			Upper:   upper,
			Before:  len(kept),
			Removed: len(kept) - len(next),
		})
		kept = next
	}

	report.Kept = len(kept)
	return kept, report, nil
}

func colorBounds(obs []observation.Observation, k float64) (lower, upper float64) {
	lower, upper = math.Inf(1), math.Inf(-1)
	col := make([]float64, len(obs))
	for c := range observation.ColorColumns {
		for i, o := range obs {
			col[i] = o.Colors()[c]
		}
		sort.Float64s(col)

		q1 := percentile(col, 0.25)
		q3 := percentile(col, 0.75)
		iqr := q3 - q1

		lower = math.Min(lower, q1-k*iqr)
		upper = math.Max(upper, q3+k*iqr)
	}
	return lower, upper
}

func withinBounds(o observation.Observation, lower, upper float64) bool {
	for _, v := range o.Colors() {
		if v < lower || v > upper {
			return false
		}
	}
	return true
}
