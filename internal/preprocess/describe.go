package preprocess

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/stellar-metallicity/pasm/internal/observation"
)

// ColumnSummary holds descriptive statistics for one column.
type ColumnSummary struct {
	Name   string
	Count  int
	Mean   float64
	StdDev float64 // sample standard deviation; 0 for a single row
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarises every column of obs.
func Describe(obs []observation.Observation) ([]ColumnSummary, error) {
	if len(obs) == 0 {
		return nil, observation.ErrNoData
	}

	out := make([]ColumnSummary, 0, observation.NumFields)
	for _, name := range observation.Columns {
		col, err := observation.Column(obs, name)
		if err != nil {
			return nil, err
		}
		sort.Float64s(col)

		mean, std := stat.MeanStdDev(col, nil)
		if len(col) < 2 {
			std = 0
		}
		out = append(out, ColumnSummary{
			Name:   name,
			Count:  len(col),
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(col),
			Q1:     percentile(col, 0.25),
			Median: percentile(col, 0.5),
			Q3:     percentile(col, 0.75),
			Max:    floats.Max(col),
		})
	}
	return out, nil
}

// WriteSummary prints summaries as an aligned table.
func WriteSummary(w io.Writer, summaries []ColumnSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			s.Name, s.Count, s.Mean, s.StdDev, s.Min, s.Q1, s.Median, s.Q3, s.Max)
	}
	return tw.Flush()
}
