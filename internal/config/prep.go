package config

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/stellar-metallicity/pasm/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical preparation defaults file.
const DefaultConfigPath = "config/prep.defaults.json"

// PrepConfig holds the dataset preparation parameters. Every field is a
// pointer so that a partial file only overrides what it names; the Get*
// methods supply defaults for the rest.
type PrepConfig struct {
	// Split params
	Input       *string  `json:"input,omitempty"`
	TrainOutput *string  `json:"train_output,omitempty"`
	ValidOutput *string  `json:"valid_output,omitempty"`
	Ratio       *float64 `json:"ratio,omitempty"`
	Seed        *uint64  `json:"seed,omitempty"`

	// Outlier removal params
	IQRFactor   *float64 `json:"iqr_factor,omitempty"`
	OutlierReps *int     `json:"outlier_reps,omitempty"`

	// Survey mirror and plots
	Database *string `json:"database,omitempty"`
	PlotDir  *string `json:"plot_dir,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPrepConfig returns a PrepConfig with all fields unset.
func EmptyPrepConfig() *PrepConfig {
	return &PrepConfig{}
}

// DefaultPrepConfig returns a PrepConfig with every field populated from
// the built-in defaults.
func DefaultPrepConfig() *PrepConfig {
	return &PrepConfig{
		Input:       ptrString("segue.csv"),
		TrainOutput: ptrString("train/data.csv"),
		ValidOutput: ptrString("valid/data.csv"),
		Ratio:       ptrFloat64(0.2),
		IQRFactor:   ptrFloat64(1.5),
		OutlierReps: ptrInt(1),
		Database:    ptrString("survey_mirror.db"),
		PlotDir:     ptrString("plots"),
	}
}

// LoadPrepConfig loads a PrepConfig from a JSON file on disk.
// The file must have a .json extension and be under 1MB.
func LoadPrepConfig(path string) (*PrepConfig, error) {
	return LoadPrepConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadPrepConfigFS is LoadPrepConfig reading through fsys.
func LoadPrepConfigFS(fsys fsutil.FileSystem, path string) (*PrepConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := fsys.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPrepConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *PrepConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/pasm/ and deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadPrepConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the set values are usable.
func (c *PrepConfig) Validate() error {
	if c.Ratio != nil {
		if r := *c.Ratio; math.IsNaN(r) || r <= 0 || r >= 1 {
			return fmt.Errorf("ratio must be between 0 and 1 (exclusive), got %v", r)
		}
	}

	if c.IQRFactor != nil {
		if k := *c.IQRFactor; math.IsNaN(k) || k < 0 {
			return fmt.Errorf("iqr_factor must be non-negative, got %v", k)
		}
	}

	if c.OutlierReps != nil && *c.OutlierReps < 0 {
		return fmt.Errorf("outlier_reps must be non-negative, got %d", *c.OutlierReps)
	}

	if c.TrainOutput != nil && c.ValidOutput != nil && *c.TrainOutput != "" && *c.TrainOutput == *c.ValidOutput {
		return fmt.Errorf("train_output and valid_output must differ, both are %q", *c.TrainOutput)
	}

	return nil
}

// GetInput returns the input value or the default.
func (c *PrepConfig) GetInput() string {
	if c.Input == nil || *c.Input == "" {
		return "segue.csv"
	}
	return *c.Input
}

// GetTrainOutput returns the train_output value or the default.
func (c *PrepConfig) GetTrainOutput() string {
	if c.TrainOutput == nil || *c.TrainOutput == "" {
		return "train/data.csv"
	}
	return *c.TrainOutput
}

// GetValidOutput returns the valid_output value or the default.
func (c *PrepConfig) GetValidOutput() string {
	if c.ValidOutput == nil || *c.ValidOutput == "" {
		return "valid/data.csv"
	}
	return *c.ValidOutput
}

// GetRatio returns the ratio value or the default.
func (c *PrepConfig) GetRatio() float64 {
	if c.Ratio == nil {
		return 0.2
	}
	return *c.Ratio
}

// GetSeed returns the seed, or nil for an unseeded shuffle.
func (c *PrepConfig) GetSeed() *uint64 {
	return c.Seed
}

// GetIQRFactor returns the iqr_factor value or the default.
func (c *PrepConfig) GetIQRFactor() float64 {
	if c.IQRFactor == nil {
		return 1.5
	}
	return *c.IQRFactor
}

// GetOutlierReps returns the outlier_reps value or the default.
func (c *PrepConfig) GetOutlierReps() int {
	if c.OutlierReps == nil {
		return 1
	}
	return *c.OutlierReps
}

// GetDatabase returns the database value or the default.
func (c *PrepConfig) GetDatabase() string {
	if c.Database == nil || *c.Database == "" {
		return "survey_mirror.db"
	}
	return *c.Database
}

// GetPlotDir returns the plot_dir value or the default.
func (c *PrepConfig) GetPlotDir() string {
	if c.PlotDir == nil || *c.PlotDir == "" {
		return "plots"
	}
	return *c.PlotDir
}
