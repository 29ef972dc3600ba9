package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/stellar-metallicity/pasm/internal/split"
)

func runSplit(env *environment, args []string) error {
	fs := newFlagSet("split", env)
	configPath := fs.String("config", "", "path to a JSON config file (default config/prep.defaults.json if present)")
	input := fs.String("input", "", "source CSV (ug,gr,ri,iz,feh)")
	trainOut := fs.String("train", "", "training output CSV")
	validOut := fs.String("valid", "", "validation output CSV")
	ratio := fs.Float64("ratio", split.DefaultRatio, "fraction of rows routed to the validation output, in (0, 1)")
	seedStr := fs.String("seed", "", "unsigned integer seed for a reproducible shuffle (default random)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := flagsSet(fs)

	// The ratio is checked before anything touches the filesystem.
	if set["ratio"] {
		if err := split.ValidateRatio(*ratio); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(env, *configPath)
	if err != nil {
		return err
	}

	opts := split.Options{
		Input:       cfg.GetInput(),
		TrainOutput: cfg.GetTrainOutput(),
		ValidOutput: cfg.GetValidOutput(),
		Ratio:       cfg.GetRatio(),
		Seed:        cfg.GetSeed(),
	}
	if set["input"] {
		opts.Input = *input
	}
	if set["train"] {
		opts.TrainOutput = *trainOut
	}
	if set["valid"] {
		opts.ValidOutput = *validOut
	}
	if set["ratio"] {
		opts.Ratio = *ratio
	}
	if set["seed"] {
		v, err := strconv.ParseUint(*seedStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", *seedStr, err)
		}
		opts.Seed = &v
	}

	sum, err := split.Run(env.fs, opts)
	if err != nil {
		return err
	}

	log.Printf("split %d rows from %s at ratio %v", sum.Total, opts.Input, opts.Ratio)
	fmt.Fprintf(env.stdout, "train:      %6d rows -> %s\n", sum.Train, opts.TrainOutput)
	fmt.Fprintf(env.stdout, "validation: %6d rows -> %s\n", sum.Validation, opts.ValidOutput)
	return nil
}
