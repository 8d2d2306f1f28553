package bench

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Comparison is one runtime's row in comparison.json
type Comparison struct {
	Runtime         string  `json:"runtime"`
	Summary         Summary `json:"summary"`
	OutputDirectory string  `json:"output_directory"`
}

// WriteComparison writes comparison.json and a comparison.html bar chart of
// the mean, median and p95 latency of each runtime.
func WriteComparison(runDir string, artifacts []*Artifacts) error {
	rows := make([]Comparison, 0, len(artifacts))
	for _, a := range artifacts {
		rel, err := filepath.Rel(runDir, a.OutputDirectory)
		if err != nil {
			rel = a.OutputDirectory
		}
		rows = append(rows, Comparison{
			Runtime:         a.Runtime.String(),
			Summary:         a.Summary,
			OutputDirectory: rel,
		})
	}
	if err := writeJSON(filepath.Join(runDir, ComparisonJSON), rows); err != nil {
		return err
	}
	return writeComparisonChart(filepath.Join(runDir, ComparisonHTML), rows)
}

func writeComparisonChart(path string, rows []Comparison) error {
	x := make([]string, len(rows))
	mean := make([]opts.BarData, len(rows))
	median := make([]opts.BarData, len(rows))
	p95 := make([]opts.BarData, len(rows))
	for i, r := range rows {
		x[i] = r.Runtime
		mean[i] = opts.BarData{Value: r.Summary.MeanMs}
		median[i] = opts.BarData{Value: r.Summary.MedianMs}
		p95[i] = opts.BarData{Value: r.Summary.P95Ms}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Layout runtime comparison", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Latency by runtime", Subtitle: "milliseconds per call"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	label := charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})
	bar.SetXAxis(x).
		AddSeries("mean", mean, label).
		AddSeries("median", median, label).
		AddSeries("p95", p95, label)

	page := components.NewPage()
	page.AddCharts(bar)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render comparison chart: %w", err)
	}
	return f.Close()
}
