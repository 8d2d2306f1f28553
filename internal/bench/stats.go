package bench

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates per-call latencies in milliseconds
type Summary struct {
	Count    int     `json:"count"`
	MeanMs   float64 `json:"mean_ms"`
	MedianMs float64 `json:"median_ms"`
	P95Ms    float64 `json:"p95_ms"`
}

// Summarize computes count, mean and nearest-rank median and p95. An empty
// input gives the zero Summary.
func Summarize(timings []float64) Summary {
	if len(timings) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), timings...)
	sort.Float64s(sorted)

	return Summary{
		Count:    len(sorted),
		MeanMs:   stat.Mean(sorted, nil),
		MedianMs: percentile(sorted, 50),
		P95Ms:    percentile(sorted, 95),
	}
}

// Percentile returns the nearest-rank percentile p (0-100) of values
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentile(sorted, p)
}

func percentile(sorted []float64, p float64) float64 {
	q := p / 100
	if q <= 0 {
		return sorted[0]
	}
	if q > 1 {
		q = 1
	}
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}
