package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/stellar-metallicity/pasm/internal/fsutil"
	"github.com/stellar-metallicity/pasm/internal/observation"
	"github.com/stellar-metallicity/pasm/internal/preprocess"
	"github.com/stellar-metallicity/pasm/internal/visualize"
)

func runClean(env *environment, args []string) error {
	fs := newFlagSet("clean", env)
	configPath := fs.String("config", "", "path to a JSON config file")
	input := fs.String("input", "", "source CSV (default from config)")
	output := fs.String("output", "", "cleaned CSV (default <input>.clean.csv)")
	iqr := fs.Float64("iqr", preprocess.DefaultIQRFactor, "IQR multiplier for the retention window")
	reps := fs.Int("reps", 1, "number of outlier removal passes")
	plotPath := fs.String("plot", "", "optional before/after box plot path (.png, .svg or .pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := flagsSet(fs)

	cfg, err := loadConfig(env, *configPath)
	if err != nil {
		return err
	}

	in := cfg.GetInput()
	if set["input"] {
		in = *input
	}
	out := *output
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".clean.csv"
	}
	opts := preprocess.OutlierOptions{IQRFactor: cfg.GetIQRFactor(), Reps: cfg.GetOutlierReps()}
	if set["iqr"] {
		opts.IQRFactor = *iqr
	}
	if set["reps"] {
		opts.Reps = *reps
	}

	obs, err := observation.LoadFile(env.fs, in)
	if err != nil {
		return err
	}

	kept, report, err := preprocess.RemoveOutliers(obs, opts)
	if err != nil {
		return err
	}
	for i, p := range report.Passes {
		log.Printf("pass %d: window [%.4f, %.4f], removed %d of %d", i+1, p.Lower, p.Upper, p.Removed, p.Before)
	}

	if err := observation.SaveFile(env.fs, out, kept); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "kept %d of %d rows -> %s\n", report.Kept, len(obs), out)

	if *plotPath != "" {
		if err := writeBoxPlot(env.fs, *plotPath, obs, kept); err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "box plot -> %s\n", *plotPath)
	}
	return nil
}

func writeBoxPlot(fsys fsutil.FileSystem, path string, before, after []observation.Observation) (err error) {
	opts := visualize.DefaultBoxPlotOptions()
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		opts.Format = strings.ToLower(ext)
	}

	w, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return visualize.BoxPlot(w, before, after, opts)
}

func runDescribe(env *environment, args []string) error {
	fs := newFlagSet("describe", env)
	configPath := fs.String("config", "", "path to a JSON config file")
	input := fs.String("input", "", "source CSV (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(env, *configPath)
	if err != nil {
		return err
	}
	in := cfg.GetInput()
	if *input != "" {
		in = *input
	}

	obs, err := observation.LoadFile(env.fs, in)
	if err != nil {
		return err
	}
	summaries, err := preprocess.Describe(obs)
	if err != nil {
		return err
	}
	return preprocess.WriteSummary(env.stdout, summaries)
}

func runReport(env *environment, args []string) error {
	fs := newFlagSet("report", env)
	configPath := fs.String("config", "", "path to a JSON config file")
	input := fs.String("input", "", "source CSV (default from config)")
	output := fs.String("output", "", "HTML output (default <plot_dir>/report.html)")
	maxPoints := fs.Int("max-points", visualize.DefaultMaxPoints, "maximum points drawn per chart")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(env, *configPath)
	if err != nil {
		return err
	}
	in := cfg.GetInput()
	if *input != "" {
		in = *input
	}
	out := *output
	if out == "" {
		out = filepath.Join(cfg.GetPlotDir(), "report.html")
	}

	obs, err := observation.LoadFile(env.fs, in)
	if err != nil {
		return err
	}

	w, err := fsutil.CreateAll(env.fs, out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := visualize.ScatterReport(w, obs, visualize.ReportOptions{
		Title:     fmt.Sprintf("%s: color index vs [Fe/H]", filepath.Base(in)),
		MaxPoints: *maxPoints,
	}); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	fmt.Fprintf(env.stdout, "report -> %s\n", out)
	return nil
}
