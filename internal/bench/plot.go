package bench

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotLatency saves a histogram of per-call latencies as a PNG
func PlotLatency(path, title string, timings []float64) error {
	if len(timings) == 0 {
		return fmt.Errorf("no timings to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "latency (ms)"
	p.Y.Label.Text = "calls"

	bins := len(timings)
	if bins > 20 {
		bins = 20
	}
	hist, err := plotter.NewHist(plotter.Values(timings), bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
