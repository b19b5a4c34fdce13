package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"projmap/internal/catalog"
	"projmap/internal/optics"
)

// lensSamples is the number of points drawn across a zoom lens range.
const lensSamples = 12

// LensChart plots horizontal FOV against throw ratio, one series per lens.
// Fixed lenses show as a single point.
func LensChart(lenses []*catalog.Lens) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Lens coverage", Width: "1000px", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: "Lens coverage", Subtitle: fmt.Sprintf("%d lenses", len(lenses))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Orient: "vertical", Right: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Throw ratio", NameLocation: "middle", NameGap: 25, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "FOV (°)", NameLocation: "middle", NameGap: 30, Type: "value"}),
	)
	for _, l := range lenses {
		sc.AddSeries(l.Name, lensPoints(l), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}
	return sc
}

func lensPoints(l *catalog.Lens) []opts.ScatterData {
	n := lensSamples
	if l.Fixed || l.ThrowMax <= l.ThrowMin {
		n = 1
	}
	data := make([]opts.ScatterData, 0, n)
	for i := 0; i < n; i++ {
		tr := l.ThrowMin
		if n > 1 {
			tr += (l.ThrowMax - l.ThrowMin) * float64(i) / float64(n-1)
		}
		fov, err := optics.ThrowRatioToFOV(tr)
		if err != nil {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{tr, fov}, Name: l.ID})
	}
	return data
}

// WriteLensChart renders the chart as a standalone HTML page.
func WriteLensChart(w io.Writer, lenses []*catalog.Lens) error {
	if err := LensChart(lenses).Render(w); err != nil {
		return fmt.Errorf("report: lens chart: %w", err)
	}
	return nil
}
