// Package charts renders school statistics aggregates: an interactive
// go-echarts Bar3D page, a static gonum/plot PNG, and an HTTP server that
// serves both.
package charts

import (
	"io"
	"math"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/schoolstats/internal/schools"
)

const (
	chartTitle    = "Number of schools and average budget by state"
	seriesSchools = "Schools count"
	seriesBudget  = "Average budget"
)

// Parameter axis categories, in y order.
var parameterAxis = []string{seriesSchools, seriesBudget}

// Options tweaks the Bar3D page. Zero values use go-echarts defaults.
type Options struct {
	Width      string
	Height     string
	AssetsHost string
	AutoRotate bool
}

// NewBar3D builds the 3D bar chart: regions along x, the two parameters along
// y, values along z. Groups without a numeric budget get no budget bar.
func NewBar3D(agg *schools.Aggregate, o Options) *echarts.Bar3D {
	width, height := o.Width, o.Height
	if width == "" {
		width = "1000px"
	}
	if height == "" {
		height = "700px"
	}

	bar := echarts.NewBar3D()
	bar.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "School statistics",
			Width:      width,
			Height:     height,
			AssetsHost: o.AssetsHost,
		}),
		echarts.WithTitleOpts(opts.Title{
			Title:    chartTitle,
			Subtitle: subtitle(agg),
		}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		echarts.WithXAxis3DOpts(opts.XAxis3D{Name: "State", Type: "category", Data: agg.Regions()}),
		echarts.WithYAxis3DOpts(opts.YAxis3D{Name: "Parameter", Type: "category", Data: parameterAxis}),
		echarts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Value", Type: "value"}),
		echarts.WithGrid3DOpts(opts.Grid3D{
			BoxWidth:    200,
			BoxDepth:    80,
			ViewControl: &opts.ViewControl{AutoRotate: opts.Bool(o.AutoRotate)},
		}),
	)

	bar.AddSeries(seriesSchools, bar3DData(agg.Counts(), 0),
		echarts.WithBar3DChartOpts(opts.Bar3DChart{Shading: "lambert"}),
		echarts.WithItemStyleOpts(opts.ItemStyle{Color: "#3b5bdb"}),
	)
	bar.AddSeries(seriesBudget, bar3DData(agg.AvgBudgets(), 1),
		echarts.WithBar3DChartOpts(opts.Bar3DChart{Shading: "lambert"}),
		echarts.WithItemStyleOpts(opts.ItemStyle{Color: "#2f9e44"}),
	)
	return bar
}

// bar3DData maps values to (x, y, z) points on row y. Non-finite values are
// dropped since they cannot be encoded as JSON.
func bar3DData(values []float64, y int) []opts.Chart3DData {
	data := make([]opts.Chart3DData, 0, len(values))
	for x, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		data = append(data, opts.Chart3DData{Value: []interface{}{x, y, v}})
	}
	return data
}

func subtitle(agg *schools.Aggregate) string {
	if agg.Len() == 0 {
		return "no matching records"
	}
	return formatCount(agg.Len(), "state") + ", " + formatCount(agg.TotalSchools(), "school")
}

// RenderHTML writes the Bar3D page for agg to w.
func RenderHTML(w io.Writer, agg *schools.Aggregate, o Options) error {
	return NewBar3D(agg, o).Render(w)
}
