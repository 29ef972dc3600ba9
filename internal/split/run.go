package split

import (
	"fmt"
	"log"

	"github.com/stellar-metallicity/pasm/internal/fsutil"
	"github.com/stellar-metallicity/pasm/internal/observation"
)

// Options configures one shuffle/split run over files.
type Options struct {
	Input       string
	TrainOutput string
	ValidOutput string
	Ratio       float64
	// Seed makes the permutation reproducible when set.
	Seed *uint64
}

// Summary describes a completed run.
type Summary struct {
	Total      int
	Train      int
	Validation int
}

// Run reads Input, splits it and writes both outputs, overwriting them.
// The ratio is checked before any file is touched, and the input is fully
// parsed before either output is created.
func Run(fsys fsutil.FileSystem, opts Options) (Summary, error) {
	if err := ValidateRatio(opts.Ratio); err != nil {
		return Summary{}, err
	}
	if opts.TrainOutput == "" || opts.ValidOutput == "" {
		return Summary{}, fmt.Errorf("train and validation output paths are required")
	}
	if opts.TrainOutput == opts.ValidOutput {
		return Summary{}, fmt.Errorf("train and validation outputs must differ, both are %q", opts.TrainOutput)
	}

	obs, err := observation.LoadFile(fsys, opts.Input)
	if err != nil {
		return Summary{}, err
	}

	res, err := Split(obs, opts.Ratio, NewRand(opts.Seed))
	if err != nil {
		return Summary{}, err
	}
	if len(res.Train) == 0 || len(res.Validation) == 0 {
		log.Printf("warning: %d rows at ratio %v leaves an empty subset (train=%d, validation=%d)",
			len(obs), opts.Ratio, len(res.Train), len(res.Validation))
	}

	if err := observation.SaveFile(fsys, opts.ValidOutput, res.Validation); err != nil {
		return Summary{}, err
	}
	if err := observation.SaveFile(fsys, opts.TrainOutput, res.Train); err != nil {
		return Summary{}, err
	}

	return Summary{
		Total:      len(obs),
		Train:      len(res.Train),
		Validation: len(res.Validation),
	}, nil
}
