package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/mwiater/lvcbench/internal/util"
)

// ChartSpec names one grouped bar chart rendered from a pivot table.
type ChartSpec struct {
	Name   string // file stem, e.g. latency_comparison
	Title  string
	YLabel string
	XLabel string
}

// RenderCharts writes <dir>/<name>.png and its interactive <dir>/<name>.html
// twin. It returns the paths written.
func RenderCharts(dir string, spec ChartSpec, t Table) ([]string, error) {
	if t.Empty() {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}
	pngPath := filepath.Join(dir, spec.Name+".png")
	if err := renderPNG(pngPath, spec, t); err != nil {
		return nil, fmt.Errorf("render %s: %w", pngPath, err)
	}
	htmlPath := filepath.Join(dir, spec.Name+".html")
	if err := renderHTML(htmlPath, spec, t); err != nil {
		return nil, fmt.Errorf("render %s: %w", htmlPath, err)
	}
	return []string{pngPath, htmlPath}, nil
}

// seriesValues returns one value per row for col; missing cells are 0.
func seriesValues(t Table, col string) plotter.Values {
	values := make(plotter.Values, len(t.Rows))
	for i, row := range t.Rows {
		if v, ok := t.Value(row, col); ok {
			values[i] = v
		}
	}
	return values
}

func renderPNG(path string, spec ChartSpec, t Table) error {
	p := plot.New()
	p.Title.Text = spec.Title
	p.Y.Label.Text = spec.YLabel
	p.X.Label.Text = spec.XLabel
	p.Legend.Top = true

	n := len(t.Cols)
	width := vg.Points(48 / float64(n))
	if width < vg.Points(6) {
		width = vg.Points(6)
	}
	for i, col := range t.Cols {
		bars, err := plotter.NewBarChart(seriesValues(t, col), width)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * width
		p.Add(bars)
		p.Legend.Add(col, bars)
	}
	p.NominalX(t.Rows...)
	p.X.Tick.Label.Rotation = 0.785
	p.X.Tick.Label.XAlign = -1

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

func renderHTML(path string, spec ChartSpec, t Table) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: spec.Title,
			ChartID:   util.Slugify(spec.Name),
		}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YLabel}),
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XLabel}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithAnimation(false),
	)
	bar.SetXAxis(t.Rows)
	for _, col := range t.Cols {
		data := make([]opts.BarData, len(t.Rows))
		for i, row := range t.Rows {
			if v, ok := t.Value(row, col); ok {
				data[i] = opts.BarData{Value: v}
			} else {
				data[i] = opts.BarData{Value: "-"}
			}
		}
		bar.AddSeries(col, data)
	}

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return err
	}
	return util.WriteFile(path, buf.Bytes())
}
