package charts

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/schoolstats/internal/schools"
)

// PNG canvas size.
const (
	pngWidth  = 10 * vg.Inch
	pngHeight = 7 * vg.Inch
)

var (
	schoolsColor = color.RGBA{R: 59, G: 91, B: 219, A: 255}
	budgetColor  = color.RGBA{R: 47, G: 158, B: 68, A: 255}
)

// RenderPNG draws two stacked bar panels (school count above, average budget
// below) sharing the state axis, and writes a PNG to w. The panels are
// separate because budgets are several orders of magnitude above counts.
func RenderPNG(w io.Writer, agg *schools.Aggregate) error {
	countPlot, err := barPanel(chartTitle, seriesSchools, agg.Regions(), agg.Counts(), schoolsColor)
	if err != nil {
		return err
	}
	budgetPlot, err := barPanel("", seriesBudget, agg.Regions(), agg.AvgBudgets(), budgetColor)
	if err != nil {
		return err
	}

	img := vgimg.New(pngWidth, pngHeight)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
		PadY:      vg.Points(8),
	}
	plots := [][]*plot.Plot{{countPlot}, {budgetPlot}}
	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		for col := range plots[row] {
			plots[row][col].Draw(canvases[row][col])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// barPanel builds one bar plot. Non-finite values are drawn as zero-height
// bars so every state keeps its slot on the shared axis.
func barPanel(title, yLabel string, names []string, values []float64, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	if len(values) == 0 {
		p.X.Label.Text = "no matching records"
		return p, nil
	}

	vals := make(plotter.Values, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		vals[i] = v
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(28))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bars: %w", yLabel, err)
	}
	bars.Color = c
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalX(names...)
	p.Legend.Add(yLabel, bars)
	p.Legend.Top = true
	return p, nil
}
