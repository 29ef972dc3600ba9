// Package split shuffles a dataset and partitions it into training and
// validation subsets.
//
// The validation subset holds round(ratio × N) observations, rounding half
// up, and the training subset holds the rest. Every source row lands in
// exactly one subset.
package split

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/stellar-metallicity/pasm/internal/observation"
)

// DefaultRatio is the fraction of rows routed to the validation subset.
const DefaultRatio = 0.2

// ErrInvalidRatio is returned for ratios outside the open interval (0, 1).
var ErrInvalidRatio = errors.New("ratio must be in (0, 1)")

// ValidateRatio checks that 0 < ratio < 1.
func ValidateRatio(ratio float64) error {
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidRatio, ratio)
	}
	return nil
}

// ValidationSize returns round(ratio × n), rounding half up.
func ValidationSize(n int, ratio float64) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Floor(ratio*float64(n) + 0.5))
	return min(max(k, 0), n)
}

// NewRand returns a PCG-backed generator. A nil seed draws a fresh one from
// the runtime source, so each call yields a different stream.
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed))
}

// Result holds one partition of a dataset.
type Result struct {
	Train      []observation.Observation
	Validation []observation.Observation

	// Order is the permutation applied to the source: Order[i] is the
	// source index placed at position i. The first len(Validation)
	// entries are the validation rows.
	Order []int
}

// Split permutes obs uniformly with rng and cuts the permutation at
// ValidationSize(len(obs), ratio). obs is not modified.
func Split(obs []observation.Observation, ratio float64, rng *rand.Rand) (Result, error) {
	if err := ValidateRatio(ratio); err != nil {
		return Result{}, err
	}
	if len(obs) == 0 {
		return Result{}, observation.ErrNoData
	}
	if rng == nil {
		rng = NewRand(nil)
	}

	order := make([]int, len(obs))
	for i := range order {
		order[i] = i
	}
	// Fisher-Yates
	for i := len(order) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	nValid := ValidationSize(len(obs), ratio)
	res := Result{
		Validation: make([]observation.Observation, 0, nValid),
		Train:      make([]observation.Observation, 0, len(obs)-nValid),
		Order:      order,
	}
	for i, idx := range order {
		if i < nValid {
			res.Validation = append(res.Validation, obs[idx])
		} else {
			res.Train = append(res.Train, obs[idx])
		}
	}
	return res, nil
}
