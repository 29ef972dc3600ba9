package visualize

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/stellar-metallicity/pasm/internal/observation"
)

// DefaultMaxPoints caps the points drawn per scatter chart.
const DefaultMaxPoints = 5000

// ReportOptions configures ScatterReport.
type ReportOptions struct {
	Title     string
	MaxPoints int
	// AssetsHost overrides where the echarts JS is loaded from.
	AssetsHost string
}

// ScatterReport writes an HTML page with one scatter chart per color index
// plotted against [Fe/H]. Large datasets are downsampled by stride.
func ScatterReport(w io.Writer, obs []observation.Observation, ro ReportOptions) error {
	if len(obs) == 0 {
		return observation.ErrNoData
	}
	if ro.MaxPoints <= 0 {
		ro.MaxPoints = DefaultMaxPoints
	}
	if ro.Title == "" {
		ro.Title = "Color index vs [Fe/H]"
	}

	stride := 1
	if len(obs) > ro.MaxPoints {
		stride = int(math.Ceil(float64(len(obs)) / float64(ro.MaxPoints)))
	}

	page := components.NewPage()
	page.PageTitle = ro.Title
	if ro.AssetsHost != "" {
		page.SetAssetsHost(ro.AssetsHost)
	}

	for c, name := range observation.ColorColumns {
		data := make([]opts.ScatterData, 0, len(obs)/stride+1)
		for i := 0; i < len(obs); i += stride {
			o := obs[i]
			data = append(data, opts.ScatterData{Value: []interface{}{o.Colors()[c], o.FeH}})
		}

		initOpts := opts.Initialization{Width: "900px", Height: "500px"}
		if ro.AssetsHost != "" {
			initOpts.AssetsHost = ro.AssetsHost
		}

		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(
			charts.WithInitializationOpts(initOpts),
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("%s vs feh", name),
				Subtitle: fmt.Sprintf("rows=%d points=%d stride=%d", len(obs), len(data), stride),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: name, NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Name: "[Fe/H]", NameLocation: "middle", NameGap: 35}),
		)
		scatter.AddSeries(name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
		page.AddCharts(scatter)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render scatter report: %w", err)
	}
	return nil
}
