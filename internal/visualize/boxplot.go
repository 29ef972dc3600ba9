// Package visualize renders diagnostic figures for prepared datasets.
package visualize

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/stellar-metallicity/pasm/internal/observation"
)

var (
	beforeFill = color.RGBA{R: 0x99, G: 0xc2, B: 0xe8, A: 0xff}
	afterFill  = color.RGBA{R: 0xf2, G: 0xb8, B: 0x7a, A: 0xff}
)

// BoxPlotOptions controls the size and encoding of BoxPlot output.
type BoxPlotOptions struct {
	Width  vg.Length
	Height vg.Length
	// Format is any gonum/plot format: png, svg, pdf, eps, jpg, tif.
	Format string
}

// DefaultBoxPlotOptions returns an 8×5 inch PNG.
func DefaultBoxPlotOptions() BoxPlotOptions {
	return BoxPlotOptions{Width: 8 * vg.Inch, Height: 5 * vg.Inch, Format: "png"}
}

// BoxPlot draws side-by-side box-and-whisker plots of the four color
// indices before (left, blue) and after (right, orange) preprocessing.
func BoxPlot(w io.Writer, before, after []observation.Observation, opts BoxPlotOptions) error {
	if len(before) == 0 || len(after) == 0 {
		return fmt.Errorf("box plot needs rows on both sides: %w", observation.ErrNoData)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultBoxPlotOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Format == "" {
		opts.Format = "png"
	}

	p := plot.New()
	p.Title.Text = "Color indices before (blue) and after (orange) outlier removal"
	p.Y.Label.Text = "Magnitude difference"

	boxWidth := vg.Points(18)
	gap := vg.Points(2)

	for i, name := range observation.ColorColumns {
		pre, err := observation.Column(before, name)
		if err != nil {
			return err
		}
		post, err := observation.Column(after, name)
		if err != nil {
			return err
		}

		b0, err := plotter.NewBoxPlot(boxWidth, float64(i), plotter.Values(pre))
		if err != nil {
			return fmt.Errorf("box plot %s before: %w", name, err)
		}
		b0.Offset = -boxWidth/2 - gap
		b0.FillColor = beforeFill

		b1, err := plotter.NewBoxPlot(boxWidth, float64(i), plotter.Values(post))
		if err != nil {
			return fmt.Errorf("box plot %s after: %w", name, err)
		}
		b1.Offset = boxWidth/2 + gap
		b1.FillColor = afterFill

		p.Add(b0, b1)
	}

	labels := make([]string, len(observation.ColorColumns))
	for i, name := range observation.ColorColumns {
		labels[i] = name[:1] + "-" + name[1:]
	}
	p.NominalX(labels...)

	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("render box plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write box plot: %w", err)
	}
	return nil
}
